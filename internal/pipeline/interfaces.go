package pipeline

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"volscribe/internal/artifacts"
	"volscribe/internal/runlog"
	"volscribe/internal/transcribe"
	"volscribe/internal/transcript"
)

// Catalog lists the volumes of a collection.
type Catalog interface {
	ListVolumes(ctx context.Context, collectionID string) ([]artifacts.Volume, error)
}

// MediaSource resolves download candidates for a volume.
type MediaSource interface {
	ResolveCandidateURLs(ctx context.Context, volume artifacts.Volume) ([]string, error)
}

// Fetcher downloads one of several candidate URLs to dest and returns the
// URL it used.
type Fetcher interface {
	FetchVolume(ctx context.Context, candidates []string, dest string) (string, error)
}

// Transcriber turns a media file into a raw recognition result.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, opts transcribe.Options) (transcript.RawResult, error)
}

// PriorTranscripts finds transcripts produced outside this pipeline.
type PriorTranscripts interface {
	FindExistingTranscriptURL(ctx context.Context, externalID string) (string, bool, error)
	FetchExistingTranscript(ctx context.Context, url string) (transcript.RawResult, error)
}

// ArchiveStore uploads finished archives.
type ArchiveStore interface {
	Put(ctx context.Context, collectionID string, archive []byte) error
}

// RunLedger records run history. Failures to record are logged, never fatal.
type RunLedger interface {
	StartRun(ctx context.Context, runID, collectionID string, startedAt time.Time) error
	RecordOutcome(ctx context.Context, runID string, volume int, stage, outcome, detail string, stageErr error, at time.Time) error
	FinishRun(ctx context.Context, runID string, f runlog.Finish) error
}
