package pipeline

import (
	"fmt"
	"sort"

	"volscribe/internal/artifacts"
)

// VolumeState is a volume's position in the per-run state machine:
//
//	Pending -> Downloading -> Downloaded -> Transcribing -> Transcribed -> Integrated
//
// A prior-transcript fetch moves Pending directly to Transcribed. A failure
// while Downloading or Transcribing falls back to the last completed state.
type VolumeState int

const (
	StatePending VolumeState = iota
	StateDownloading
	StateDownloaded
	StateTranscribing
	StateTranscribed
	StateIntegrated
)

func (s VolumeState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateTranscribing:
		return "transcribing"
	case StateTranscribed:
		return "transcribed"
	case StateIntegrated:
		return "integrated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateFromStage maps an on-disk stage to its resting state.
func StateFromStage(stage artifacts.Stage) VolumeState {
	switch stage {
	case artifacts.StageTranscribed:
		return StateTranscribed
	case artifacts.StageDownloaded:
		return StateDownloaded
	default:
		return StatePending
	}
}

// VolumeStatus is one row of a collection status report.
type VolumeStatus struct {
	Volume    artifacts.Volume `json:"volume"`
	State     VolumeState      `json:"-"`
	StateName string           `json:"state"`
	MediaFile string           `json:"media_file,omitempty"`
}

// Status derives each volume's resting state from a directory listing.
func Status(layout artifacts.Layout, volumes []artifacts.Volume, files []string) []VolumeStatus {
	media := make(map[int]string)
	for _, local := range layout.Downloaded(volumes, files) {
		media[local.Volume.Number] = local.FileName
	}
	out := make([]VolumeStatus, 0, len(volumes))
	for _, v := range volumes {
		state := StateFromStage(layout.StageOf(v, files))
		out = append(out, VolumeStatus{Volume: v, State: state, StateName: state.String(), MediaFile: media[v.Number]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume.Number < out[j].Volume.Number })
	return out
}

// tracker holds in-run volume states.
type tracker struct {
	states map[int]VolumeState
}

func newTracker(layout artifacts.Layout, volumes []artifacts.Volume, files []string) *tracker {
	t := &tracker{states: make(map[int]VolumeState, len(volumes))}
	for _, v := range volumes {
		t.states[v.Number] = StateFromStage(layout.StageOf(v, files))
	}
	return t
}

func (t *tracker) get(number int) VolumeState {
	return t.states[number]
}

func (t *tracker) set(number int, state VolumeState) {
	t.states[number] = state
}

func (t *tracker) snapshot() map[int]VolumeState {
	out := make(map[int]VolumeState, len(t.states))
	for k, v := range t.states {
		out[k] = v
	}
	return out
}
