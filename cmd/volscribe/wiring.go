package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/schollz/progressbar/v3"

	"volscribe/internal/archivestore"
	"volscribe/internal/catalog"
	"volscribe/internal/config"
	"volscribe/internal/fetch"
	"volscribe/internal/httpjson"
	"volscribe/internal/logging"
	"volscribe/internal/mediasource"
	"volscribe/internal/mirror"
	"volscribe/internal/pipeline"
	"volscribe/internal/priorlookup"
	"volscribe/internal/runlog"
	"volscribe/internal/services/gcpspeech"
	"volscribe/internal/services/whisperx"
	"volscribe/internal/transcribe"
)

// pipelineEnv owns the collaborators of one orchestrator.
type pipelineEnv struct {
	orchestrator *pipeline.Orchestrator
	closers      []func() error
}

func (e *pipelineEnv) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// buildPipeline wires the orchestrator from cfg. Progress bars are drawn on
// progress when it is a terminal.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*pipelineEnv, error) {
	env := &pipelineEnv{}
	fail := func(err error) (*pipelineEnv, error) {
		_ = env.Close()
		return nil, err
	}

	source, err := catalog.New(cfg, logger)
	if err != nil {
		return fail(err)
	}
	resolver, err := mediasource.New(cfg, logger)
	if err != nil {
		return fail(err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.RequestTimeout()
	client := &http.Client{Transport: transport}
	racer := mirror.NewRacer(
		mirror.WithHTTPClient(client),
		mirror.WithSampleBytes(cfg.Media.RaceSampleBytes),
		mirror.WithTimeout(cfg.RaceTimeout()),
		mirror.WithLogger(logger),
	)
	fetchOpts := []fetch.Option{fetch.WithHTTPClient(client), fetch.WithRacer(racer), fetch.WithLogger(logger)}
	interactive := shouldColorize(progress)
	if interactive {
		fetchOpts = append(fetchOpts, fetch.WithProgressBar(progress))
	}
	fetcher := fetch.New(fetchOpts...)

	engine, closeEngine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	if closeEngine != nil {
		env.closers = append(env.closers, closeEngine)
	}
	runner := transcribe.NewRunner(engine,
		transcribe.WithFFmpeg(cfg.Transcription.FFmpegBinary),
		transcribe.WithFFprobe(cfg.Transcription.FFprobeBinary),
		transcribe.WithLogger(logger),
	)

	deps := pipeline.Dependencies{
		Catalog:     source,
		Media:       resolver,
		Fetcher:     fetcher,
		Transcriber: runner,
	}
	if cfg.PriorTranscripts.Enabled {
		hc := httpjson.New(httpjson.WithTimeout(cfg.PriorLookupTimeout()), httpjson.WithLogger(logger))
		deps.Prior = priorlookup.New(cfg.PriorTranscripts.Endpoint, hc, logger)
	}
	if cfg.Archive.Backend != config.ArchiveBackendNone {
		store, err := archivestore.Open(ctx, cfg.Archive, logger)
		if err != nil {
			return fail(err)
		}
		env.closers = append(env.closers, store.Close)
		deps.Archive = store
	}
	ledger, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "run_ledger_unavailable",
			logging.String("path", cfg.RunLogPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will not be recorded"),
			logging.String(logging.FieldErrorHint, "check paths.state_dir or remove an incompatible runs.db"),
		)
	} else {
		env.closers = append(env.closers, ledger.Close)
		deps.Ledger = ledger
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.EngineName = engine.Name()
	if interactive {
		opts.Transcribe.Callbacks = progressCallbacks(progress)
	}
	orchestrator, err := pipeline.New(deps, opts, logger)
	if err != nil {
		return fail(err)
	}
	env.orchestrator = orchestrator
	return env, nil
}

// newEngine builds the configured speech engine and its closer, if any.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transcribe.Engine, func() error, error) {
	switch cfg.Transcription.Engine {
	case config.EngineWhisperX:
		return whisperx.NewEngine(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDAEnabled,
			VADMethod:   cfg.Transcription.WhisperXVADMethod,
			HFToken:     cfg.Transcription.WhisperXHuggingFace,
			Language:    cfg.Transcription.Language,
		}), nil, nil
	case config.EngineGCPSpeech:
		engine, err := gcpspeech.New(ctx, gcpspeech.Config{
			LanguageCode: cfg.Transcription.SpeechLanguageCode,
			Model:        cfg.Transcription.SpeechModel,
		}, gcpspeech.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return engine, engine.Close, nil
	default:
		return nil, nil, fmt.Errorf("transcription.engine: unsupported value %q", cfg.Transcription.Engine)
	}
}

// progressCallbacks draws one chunk progress bar per transcribed volume.
func progressCallbacks(w io.Writer) transcribe.Callbacks {
	var bar *progressbar.ProgressBar
	return transcribe.Callbacks{
		OnTranscriptionStarted: func(total int) {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("transcribing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		},
		OnTranscriptionProgress: func(int) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
		OnTranscriptionFinished: func(int) {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
		},
	}
}
