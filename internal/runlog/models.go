package runlog

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning Status = "running"
	// StatusCompleted means every volume was integrated.
	StatusCompleted Status = "completed"
	// StatusPartial means the archive was written with an integration gap.
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Outcome values for a volume stage.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Run is one orchestrator invocation for a collection.
type Run struct {
	ID                 string     `json:"id"`
	CollectionID       string     `json:"collection_id"`
	Status             Status     `json:"status"`
	VolumesTotal       int        `json:"volumes_total"`
	VolumesTranscribed int        `json:"volumes_transcribed"`
	Passes             int        `json:"passes"`
	Remaining          []int      `json:"remaining,omitempty"`
	ArchivePath        string     `json:"archive_path,omitempty"`
	Uploaded           bool       `json:"uploaded"`
	ErrorMessage       string     `json:"error,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
}

// Duration returns the run's wall time, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// VolumeOutcome is the result of one stage for one volume within a run.
// Recording the same (run, volume, stage) again replaces the earlier row, so
// a later pass overwrites an earlier failure.
type VolumeOutcome struct {
	RunID        string    `json:"run_id"`
	Volume       int       `json:"volume"`
	Stage        string    `json:"stage"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Finish carries the final fields written by FinishRun.
type Finish struct {
	Status             Status
	VolumesTotal       int
	VolumesTranscribed int
	Passes             int
	Remaining          []int
	ArchivePath        string
	Uploaded           bool
	Err                error
	FinishedAt         time.Time
}
