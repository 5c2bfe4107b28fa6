package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"volscribe/internal/artifacts"
	"volscribe/internal/catalog"
	"volscribe/internal/config"
	"volscribe/internal/fileutil"
	"volscribe/internal/logging"
	"volscribe/internal/mirror"
	"volscribe/internal/runlog"
	"volscribe/internal/services"
	"volscribe/internal/transcribe"
	"volscribe/internal/transcript"
)

// Stage names used in logs and the run ledger.
const (
	StagePrior      = "prior"
	StageDownload   = "download"
	StageTranscribe = "transcribe"
	StageIntegrate  = "integrate"
)

const defaultMaxPasses = 3

// Dependencies are the orchestrator's collaborators. Prior, Archive and
// Ledger are optional.
type Dependencies struct {
	Catalog     Catalog
	Media       MediaSource
	Fetcher     Fetcher
	Transcriber Transcriber
	Prior       PriorTranscripts
	Archive     ArchiveStore
	Ledger      RunLedger
}

// Options tunes the orchestrator.
type Options struct {
	WorkDir    string
	Layout     artifacts.Layout
	Container  string
	MaxPasses  int
	Assembly   transcript.Options
	Transcribe transcribe.Options
	// EngineName is recorded as the detail of transcription outcomes.
	EngineName string
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WorkDir:   cfg.Paths.WorkDir,
		Layout:    artifacts.NewLayout(cfg.Media.Container),
		Container: cfg.Media.Container,
		MaxPasses: cfg.Pipeline.MaxPasses,
		Assembly: transcript.Options{
			MaxSecondsPerSegment: cfg.Assembly.MaxSecondsPerSegment,
			MinWordsPerSegment:   cfg.Assembly.MinWordsPerSegment,
			GapThreshold:         cfg.Assembly.GapThresholdSeconds,
			Fillers:              cfg.Assembly.Fillers,
			Hints:                cfg.Assembly.Hints,
		},
		Transcribe: transcribe.Options{
			Concurrency:          cfg.Transcription.Concurrency,
			ChunkDurationSeconds: cfg.Transcription.ChunkDurationSeconds,
		},
		EngineName: cfg.Transcription.Engine,
	}
}

// RunOptions selects what a single run does.
type RunOptions struct {
	// Volume restricts the run to one volume number when positive.
	Volume int
	// SkipPrior disables the prior-transcript lookup.
	SkipPrior bool
	// Upload sends the archive to the archive store.
	Upload bool
	// AllowPartialUpload uploads even when volumes are missing.
	AllowPartialUpload bool
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	CollectionID string
	Volumes      []int
	Transcribed  []int
	Remaining    []int
	Passes       int
	ArchivePath  string
	Uploaded     bool
	States       map[int]VolumeState
	Failures     []VolumeFailure
	// Gap is non-nil when the archive is missing volumes.
	Gap *IntegrationGap
}

// Orchestrator runs collections through the pipeline.
type Orchestrator struct {
	deps    Dependencies
	opts    Options
	fillers transcript.FillerSet
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// New constructs an Orchestrator.
func New(deps Dependencies, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Catalog == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "catalog is required", nil)
	case deps.Media == nil || deps.Fetcher == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "media source and fetcher are required", nil)
	case deps.Transcriber == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "transcriber is required", nil)
	case strings.TrimSpace(opts.WorkDir) == "":
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "work directory is required", nil)
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = defaultMaxPasses
	}
	if opts.Container == "" {
		opts.Container = "mp4"
	}
	if len(opts.Layout.DownloadExts) == 0 {
		opts.Layout = artifacts.NewLayout(opts.Container)
	}
	if opts.Assembly.MaxSecondsPerSegment == 0 {
		fillers, hints := opts.Assembly.Fillers, opts.Assembly.Hints
		opts.Assembly = transcript.DefaultOptions()
		opts.Assembly.Fillers, opts.Assembly.Hints = fillers, hints
	}
	return &Orchestrator{
		deps:    deps,
		opts:    opts,
		fillers: transcript.NewFillerSet(opts.Assembly.Fillers),
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// CollectionDir returns the working directory for collectionID.
func (o *Orchestrator) CollectionDir(collectionID string) string {
	return filepath.Join(o.opts.WorkDir, collectionID)
}

// ArchivePath returns where the collection archive is written.
func (o *Orchestrator) ArchivePath(collectionID string) string {
	return filepath.Join(o.opts.WorkDir, collectionID+".json")
}

// Run processes one collection. Per-volume failures are recorded in the
// summary; only cross-cutting failures return an error.
func (o *Orchestrator) Run(ctx context.Context, collectionID string, ro RunOptions) (*Summary, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" || strings.ContainsAny(collectionID, `/\`) || strings.HasPrefix(collectionID, ".") {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", fmt.Sprintf("invalid collection id %q", collectionID), nil)
	}

	runID := o.newID()
	ctx = services.WithCollectionID(ctx, collectionID)
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	dir := o.CollectionDir(collectionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create collection directory", err)
	}
	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", dir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", collectionID, ErrCollectionLocked)
	}
	defer func() { _ = lock.Unlock() }()

	volumes, err := o.deps.Catalog.ListVolumes(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("collection %s: list volumes: %w", collectionID, err)
	}
	if ro.Volume > 0 {
		volumes = catalog.FilterVolume(volumes, ro.Volume)
		if len(volumes) == 0 {
			return nil, services.Wrap(services.ErrNotFound, "pipeline", "run",
				fmt.Sprintf("collection %s has no volume %d", collectionID, ro.Volume), nil)
		}
	}

	started := o.now()
	o.ledgerStart(ctx, runID, collectionID, started)

	summary := &Summary{
		RunID:        runID,
		CollectionID: collectionID,
		Volumes:      artifacts.Numbers(volumes),
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("volumes", len(volumes)),
		logging.Int("max_passes", o.opts.MaxPasses),
	)

	r := &run{
		o:          o,
		ro:         ro,
		id:         runID,
		collection: collectionID,
		dir:        dir,
		volumes:    volumes,
		logger:     logger,
		summary:    summary,
		sources:    make(map[int][]string),
		priorDone:  make(map[int]bool),
	}
	runErr := r.execute(ctx)
	o.ledgerFinish(ctx, runID, summary, runErr)
	if runErr != nil {
		return summary, runErr
	}

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("passes", summary.Passes),
		logging.Int("transcribed", len(summary.Transcribed)),
		logging.Int("remaining", len(summary.Remaining)),
		logging.Int("failures", len(summary.Failures)),
		logging.Bool("uploaded", summary.Uploaded),
		logging.Duration("duration", o.now().Sub(started)),
	)
	return summary, nil
}

// run holds the state of one Run call.
type run struct {
	o          *Orchestrator
	ro         RunOptions
	id         string
	collection string
	dir        string
	volumes    []artifacts.Volume
	logger     *slog.Logger
	summary    *Summary
	tracker    *tracker
	// sources keeps the (redacted) URLs media was fetched from this run.
	sources   map[int][]string
	priorDone map[int]bool
}

func (r *run) list() ([]string, error) {
	files, err := artifacts.ListDir(r.dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "list", r.dir, err)
	}
	return files, nil
}

func (r *run) execute(ctx context.Context) error {
	files, err := r.list()
	if err != nil {
		return err
	}
	layout := r.o.opts.Layout
	r.tracker = newTracker(layout, r.volumes, files)

	var previous []int
	for pass := 1; pass <= r.o.opts.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err = r.list()
		if err != nil {
			return err
		}
		remaining := layout.Remaining(artifacts.StageTranscribed, r.volumes, files)
		numbers := artifacts.Numbers(remaining)
		if len(remaining) == 0 {
			break
		}
		if previous != nil && slices.Equal(previous, numbers) {
			r.logger.Info("remaining set unchanged; stopping",
				logging.Int("pass", pass),
				logging.Any("remaining", numbers),
			)
			break
		}
		previous = numbers
		r.summary.Passes = pass
		r.logger.Info("pass started",
			logging.String(logging.FieldEventType, "pass_start"),
			logging.Int("pass", pass),
			logging.Any("remaining", numbers),
		)

		if err := r.pass(ctx); err != nil {
			return err
		}
	}

	files, err = r.list()
	if err != nil {
		return err
	}
	r.summary.Remaining = artifacts.Numbers(layout.Remaining(artifacts.StageTranscribed, r.volumes, files))
	for _, v := range r.volumes {
		if r.tracker.get(v.Number) >= StateTranscribed && !slices.Contains(r.summary.Remaining, v.Number) {
			r.summary.Transcribed = append(r.summary.Transcribed, v.Number)
		}
	}

	if err := r.integrate(ctx); err != nil {
		return err
	}
	r.summary.States = r.tracker.snapshot()
	return nil
}

// pass runs the prior, download and transcribe steps once.
func (r *run) pass(ctx context.Context) error {
	layout := r.o.opts.Layout

	if r.o.deps.Prior != nil && !r.ro.SkipPrior {
		files, err := r.list()
		if err != nil {
			return err
		}
		for _, v := range layout.Remaining(artifacts.StageTranscribed, r.volumes, files) {
			if r.priorDone[v.Number] {
				continue
			}
			if err := r.tryPrior(ctx, v); err != nil {
				return err
			}
		}
	}

	files, err := r.list()
	if err != nil {
		return err
	}
	untranscribed := layout.Remaining(artifacts.StageTranscribed, r.volumes, files)
	for _, v := range layout.Remaining(artifacts.StageDownloaded, untranscribed, files) {
		if err := r.download(ctx, v); err != nil {
			return err
		}
	}

	files, err = r.list()
	if err != nil {
		return err
	}
	untranscribed = layout.Remaining(artifacts.StageTranscribed, r.volumes, files)
	for _, local := range layout.Downloaded(untranscribed, files) {
		if err := r.transcribe(ctx, local); err != nil {
			return err
		}
	}
	return nil
}

// volumeContext annotates ctx with the volume and stage.
func (r *run) volumeContext(ctx context.Context, v artifacts.Volume, stage string) (context.Context, *slog.Logger) {
	ctx = services.WithVolume(ctx, v.Number)
	ctx = services.WithStage(ctx, stage)
	return ctx, logging.WithContext(ctx, r.o.logger)
}

// fail records a per-volume failure. Context cancellation is returned so the
// run stops; every other error is absorbed.
func (r *run) fail(ctx context.Context, logger *slog.Logger, v artifacts.Volume, stage string, fallback VolumeState, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	r.tracker.set(v.Number, fallback)
	r.summary.Failures = append(r.summary.Failures, VolumeFailure{Volume: v.Number, Stage: stage, Err: err})
	logging.WarnWithContext(logger, "volume stage failed", "volume_failed",
		logging.String(logging.FieldStage, stage),
		logging.Error(err),
		logging.String("error_kind", services.Classify(err)),
		logging.Bool("retryable", services.IsRetryable(err)),
		logging.String(logging.FieldImpact, "volume stays at "+fallback.String()),
		logging.String(logging.FieldErrorHint, "rerun transcribe to retry the volume"),
	)
	r.o.ledgerOutcome(ctx, r.id, v.Number, stage, runlog.OutcomeFailed, "", err)
	return nil
}

func (r *run) advance(logger *slog.Logger, v artifacts.Volume, to VolumeState) {
	from := r.tracker.get(v.Number)
	r.tracker.set(v.Number, to)
	logger.Debug("volume state changed",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
}

func (r *run) tryPrior(ctx context.Context, v artifacts.Volume) error {
	ctx, logger := r.volumeContext(ctx, v, StagePrior)
	r.priorDone[v.Number] = true

	link, found, err := r.o.deps.Prior.FindExistingTranscriptURL(ctx, v.ExternalID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logging.WarnWithContext(logger, "prior transcript lookup failed", "prior_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "volume will be transcribed locally"),
			logging.String(logging.FieldErrorHint, "check prior_transcripts.endpoint"),
		)
		return nil
	}
	if !found {
		r.o.ledgerOutcome(ctx, r.id, v.Number, StagePrior, runlog.OutcomeSkipped, "not found", nil)
		return nil
	}

	raw, err := r.o.deps.Prior.FetchExistingTranscript(ctx, link)
	if err != nil {
		return r.fail(ctx, logger, v, StagePrior, r.tracker.get(v.Number), err)
	}
	var sources []string
	if raw.SourceURL != "" {
		sources = []string{raw.SourceURL}
	}
	if err := r.writeVolume(v, raw, sources); err != nil {
		return r.fail(ctx, logger, v, StagePrior, r.tracker.get(v.Number), err)
	}
	r.advance(logger, v, StateTranscribed)
	logger.Info("prior transcript saved", logging.String(logging.FieldEventType, "prior_transcript_saved"))
	r.o.ledgerOutcome(ctx, r.id, v.Number, StagePrior, runlog.OutcomeSucceeded, "", nil)
	return nil
}

func (r *run) download(ctx context.Context, v artifacts.Volume) error {
	ctx, logger := r.volumeContext(ctx, v, StageDownload)
	r.advance(logger, v, StateDownloading)

	candidates, err := r.o.deps.Media.ResolveCandidateURLs(ctx, v)
	if err != nil {
		return r.fail(ctx, logger, v, StageDownload, StatePending, err)
	}
	dest := artifacts.ArtifactPath(r.dir, v, r.o.opts.Container)
	used, err := r.o.deps.Fetcher.FetchVolume(ctx, candidates, dest)
	if err != nil {
		return r.fail(ctx, logger, v, StageDownload, StatePending, err)
	}
	redacted := mirror.Redact(used)
	r.sources[v.Number] = []string{redacted}
	r.advance(logger, v, StateDownloaded)
	logger.Info("media downloaded",
		logging.String(logging.FieldEventType, "media_downloaded"),
		logging.String("file", filepath.Base(dest)),
		logging.String("source", redacted),
	)
	r.o.ledgerOutcome(ctx, r.id, v.Number, StageDownload, runlog.OutcomeSucceeded, redacted, nil)
	return nil
}

func (r *run) transcribe(ctx context.Context, local artifacts.LocalArtifact) error {
	v := local.Volume
	ctx, logger := r.volumeContext(ctx, v, StageTranscribe)
	r.advance(logger, v, StateTranscribing)

	opts := r.o.opts.Transcribe
	opts.Callbacks = chainCallbacks(loggingCallbacks(logger), opts.Callbacks)
	path := filepath.Join(r.dir, local.FileName)
	start := r.o.now()

	raw, err := r.o.deps.Transcriber.Transcribe(ctx, path, opts)
	if err != nil {
		return r.fail(ctx, logger, v, StageTranscribe, StateDownloaded, err)
	}
	if err := r.writeVolume(v, raw, r.sources[v.Number]); err != nil {
		return r.fail(ctx, logger, v, StageTranscribe, StateDownloaded, err)
	}
	r.advance(logger, v, StateTranscribed)
	logger.Info("volume transcribed",
		logging.String(logging.FieldEventType, "volume_transcribed"),
		logging.String("file", local.FileName),
		logging.Duration("duration", r.o.now().Sub(start)),
	)
	r.o.ledgerOutcome(ctx, r.id, v.Number, StageTranscribe, runlog.OutcomeSucceeded, r.o.opts.EngineName, nil)
	return nil
}

// loggingCallbacks reports transcription progress through logger.
func loggingCallbacks(logger *slog.Logger) transcribe.Callbacks {
	var total, done int
	sampler := logging.NewProgressSampler(25)
	return transcribe.Callbacks{
		OnPreprocessingStarted: func(path string) {
			logger.Debug("pre-formatting media", logging.String("file", filepath.Base(path)))
		},
		OnPreprocessingFinished: func(path string) {
			logger.Debug("pre-formatted media", logging.String("file", filepath.Base(path)))
		},
		OnTranscriptionStarted: func(n int) {
			total = n
			logger.Info("transcription started", logging.Int("chunks", n))
		},
		OnTranscriptionProgress: func(index int) {
			done++
			logger.Debug("chunk transcribed", logging.Int("chunk", index))
			if total > 0 && sampler.ShouldLog(float64(done)*100/float64(total), "transcribing") {
				logger.Info("transcription progress", logging.String("progress", fmt.Sprintf("%d/%d", done, total)))
			}
		},
		OnTranscriptionFinished: func(n int) {
			logger.Debug("transcription finished", logging.Int("chunks", n))
		},
	}
}

// chainCallbacks calls a's hooks before b's. Either side may leave hooks nil.
func chainCallbacks(a, b transcribe.Callbacks) transcribe.Callbacks {
	path := func(x, y func(string)) func(string) {
		return func(p string) {
			if x != nil {
				x(p)
			}
			if y != nil {
				y(p)
			}
		}
	}
	count := func(x, y func(int)) func(int) {
		return func(n int) {
			if x != nil {
				x(n)
			}
			if y != nil {
				y(n)
			}
		}
	}
	return transcribe.Callbacks{
		OnPreprocessingStarted:  path(a.OnPreprocessingStarted, b.OnPreprocessingStarted),
		OnPreprocessingFinished: path(a.OnPreprocessingFinished, b.OnPreprocessingFinished),
		OnTranscriptionStarted:  count(a.OnTranscriptionStarted, b.OnTranscriptionStarted),
		OnTranscriptionProgress: count(a.OnTranscriptionProgress, b.OnTranscriptionProgress),
		OnTranscriptionFinished: count(a.OnTranscriptionFinished, b.OnTranscriptionFinished),
	}
}

// writeVolume normalizes raw and writes the per-volume artifact atomically.
func (r *run) writeVolume(v artifacts.Volume, raw transcript.RawResult, sources []string) error {
	segments, err := transcript.Normalize(raw, r.o.fillers)
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "normalize", v.String(), err)
	}
	assembly, err := transcript.Assemble(segments, r.o.opts.Assembly)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "assemble", v.String(), err)
	}
	ts := raw.Timestamp
	if ts == nil {
		now := r.o.now().UTC()
		ts = &now
	}
	vt := transcript.VolumeTranscript{
		Volume:     v.Number,
		Timestamp:  ts,
		SourceURLs: sources,
		Segments:   segments,
		Text:       assembly.Text,
	}
	if err := fileutil.WriteJSONAtomic(artifacts.TranscriptPath(r.dir, v), vt); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "write transcript", v.String(), err)
	}
	return nil
}

func (o *Orchestrator) ledgerStart(ctx context.Context, runID, collectionID string, at time.Time) {
	if o.deps.Ledger == nil {
		return
	}
	if err := o.deps.Ledger.StartRun(ctx, runID, collectionID, at); err != nil {
		o.ledgerWarn(ctx, err)
	}
}

func (o *Orchestrator) ledgerOutcome(ctx context.Context, runID string, volume int, stage, outcome, detail string, stageErr error) {
	if o.deps.Ledger == nil {
		return
	}
	if err := o.deps.Ledger.RecordOutcome(ctx, runID, volume, stage, outcome, detail, stageErr, o.now()); err != nil {
		o.ledgerWarn(ctx, err)
	}
}

func (o *Orchestrator) ledgerFinish(ctx context.Context, runID string, s *Summary, runErr error) {
	if o.deps.Ledger == nil {
		return
	}
	status := runlog.StatusCompleted
	switch {
	case runErr != nil:
		status = runlog.StatusFailed
	case s.Gap != nil:
		status = runlog.StatusPartial
	}
	f := runlog.Finish{
		Status:             status,
		VolumesTotal:       len(s.Volumes),
		VolumesTranscribed: len(s.Transcribed),
		Passes:             s.Passes,
		Remaining:          s.Remaining,
		ArchivePath:        s.ArchivePath,
		Uploaded:           s.Uploaded,
		Err:                runErr,
		FinishedAt:         o.now(),
	}
	// Record the outcome even when the run context was cancelled.
	if err := o.deps.Ledger.FinishRun(context.WithoutCancel(ctx), runID, f); err != nil {
		o.ledgerWarn(ctx, err)
	}
}

func (o *Orchestrator) ledgerWarn(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run ledger write failed", "run_ledger_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history incomplete"),
		logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
	)
}
