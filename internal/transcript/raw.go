package transcript

import "time"

// Kind tags the upstream shape of a RawResult.
type Kind int

const (
	// TokenTimed results carry exact per-token timing.
	TokenTimed Kind = iota + 1
	// SegmentTimed results carry only coarse segment timing and text.
	SegmentTimed
)

func (k Kind) String() string {
	switch k {
	case TokenTimed:
		return "token_timed"
	case SegmentTimed:
		return "segment_timed"
	default:
		return "unknown"
	}
}

// RawToken is a recognizer word. Confidence is carried for logging only and
// never reaches a Segment.
type RawToken struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"token"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RawEntry is one upstream segment. Tokens is empty for SegmentTimed results.
type RawEntry struct {
	Start  float64    `json:"start"`
	End    float64    `json:"end"`
	Text   string     `json:"text"`
	Tokens []RawToken `json:"tokens,omitempty"`
}

// RawResult is the tagged union handed to Normalize.
type RawResult struct {
	Kind    Kind
	Entries []RawEntry

	// Timestamp and SourceURL are only known for transcripts fetched from a
	// prior-transcription index.
	Timestamp *time.Time
	SourceURL string
}
