package transcribe

// Default pool and chunk sizes.
const (
	DefaultConcurrency          = 5
	DefaultChunkDurationSeconds = 300
)

// Callbacks receive progress notifications. They may be nil. The runner
// serializes calls, so implementations need no locking of their own.
type Callbacks struct {
	OnPreprocessingStarted  func(path string)
	OnPreprocessingFinished func(path string)
	OnTranscriptionStarted  func(totalChunks int)
	// OnTranscriptionProgress reports a finished chunk by its zero-based index.
	// Chunks finish in any order.
	OnTranscriptionProgress func(index int)
	OnTranscriptionFinished func(totalChunks int)
}

// Options tunes one Transcribe call.
type Options struct {
	Concurrency          int
	ChunkDurationSeconds int
	Callbacks            Callbacks
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.ChunkDurationSeconds <= 0 {
		o.ChunkDurationSeconds = DefaultChunkDurationSeconds
	}
	return o
}
