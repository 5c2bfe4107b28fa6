package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"volscribe/internal/logging"
	"volscribe/internal/media/ffprobe"
	"volscribe/internal/services"
	"volscribe/internal/transcript"
)

// minChunkSeconds drops a trailing sliver too short to hold speech.
const minChunkSeconds = 0.5

// Engine transcribes a single WAV chunk. Returned times are relative to the
// start of the chunk and tokens must carry word-level timing.
type Engine interface {
	Name() string
	TranscribeChunk(ctx context.Context, wavPath string) ([]transcript.RawEntry, error)
}

// Prober inspects media before chunking.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Runner drives an Engine over a whole media file.
type Runner struct {
	engine  Engine
	ffmpeg  string
	probe   Prober
	run     CommandRunner
	tempDir string
	logger  *slog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithFFmpeg sets the ffmpeg binary.
func WithFFmpeg(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.ffmpeg = binary
		}
	}
}

// WithFFprobe sets the ffprobe binary used by the default prober.
func WithFFprobe(binary string) Option {
	return func(r *Runner) {
		r.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}
}

// WithProber replaces media inspection (for testing).
func WithProber(p Prober) Option {
	return func(r *Runner) {
		if p != nil {
			r.probe = p
		}
	}
}

// WithCommandRunner replaces ffmpeg execution (for testing).
func WithCommandRunner(run CommandRunner) Option {
	return func(r *Runner) {
		if run != nil {
			r.run = run
		}
	}
}

// WithTempDir sets where chunk directories are created.
func WithTempDir(dir string) Option {
	return func(r *Runner) {
		r.tempDir = dir
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a Runner around engine.
func NewRunner(engine Engine, opts ...Option) *Runner {
	r := &Runner{engine: engine, ffmpeg: "ffmpeg", run: execCommand}
	WithFFprobe("ffprobe")(r)
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "transcribe")
	return r
}

type chunk struct {
	index    int
	start    float64
	duration float64
	path     string
}

// Transcribe implements the pipeline's transcription collaborator. The result
// is token-timed with timestamps relative to the start of the media.
func (r *Runner) Transcribe(ctx context.Context, path string, opts Options) (transcript.RawResult, error) {
	opts = opts.withDefaults()
	notify := newNotifier(opts.Callbacks)
	logger := logging.WithContext(ctx, r.logger).With(logging.String("engine", r.engine.Name()))

	notify.preprocessingStarted(path)
	probe, err := r.probe(ctx, path)
	if err != nil {
		return transcript.RawResult{}, services.Wrap(services.ErrExternalTool, "transcribe", "probe media", path, err)
	}
	duration, err := probe.Duration()
	if err != nil {
		return transcript.RawResult{}, services.Wrap(services.ErrValidation, "transcribe", "probe media", path, err)
	}
	_, audioIndex, err := probe.AudioStream()
	if err != nil {
		return transcript.RawResult{}, services.Wrap(services.ErrValidation, "transcribe", "probe media", path, err)
	}

	workDir, err := os.MkdirTemp(r.tempDir, "volscribe-chunks-*")
	if err != nil {
		return transcript.RawResult{}, services.Wrap(services.ErrConfiguration, "transcribe", "create chunk dir", "", err)
	}
	defer os.RemoveAll(workDir)

	chunks := planChunks(duration, float64(opts.ChunkDurationSeconds), workDir)
	if err := r.extractChunks(ctx, path, audioIndex, chunks, opts.Concurrency); err != nil {
		return transcript.RawResult{}, err
	}
	notify.preprocessingFinished(path)
	logger.Debug("audio chunked",
		logging.Float64("duration_seconds", duration),
		logging.Int("chunks", len(chunks)),
	)

	notify.transcriptionStarted(len(chunks))
	results := make([][]transcript.RawEntry, len(chunks))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for _, c := range chunks {
		c := c
		group.Go(func() error {
			entries, err := r.engine.TranscribeChunk(gctx, c.path)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "transcribe", "transcribe chunk", fmt.Sprintf("chunk %d at %.0fs", c.index, c.start), err)
			}
			results[c.index] = offsetEntries(entries, c.start)
			notify.transcriptionProgress(c.index)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return transcript.RawResult{}, err
	}
	notify.transcriptionFinished(len(chunks))

	var entries []transcript.RawEntry
	for _, chunkEntries := range results {
		entries = append(entries, chunkEntries...)
	}
	if len(entries) == 0 {
		return transcript.RawResult{}, services.Wrap(services.ErrValidation, "transcribe", "collect chunks", path, errors.New("engine produced no speech"))
	}
	return transcript.RawResult{Kind: transcript.TokenTimed, Entries: entries}, nil
}

func (r *Runner) extractChunks(ctx context.Context, source string, audioIndex int, chunks []chunk, limit int) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, c := range chunks {
		c := c
		group.Go(func() error {
			args := chunkArgs(source, audioIndex, c.start, c.duration, c.path)
			if err := r.run(gctx, r.ffmpeg, args...); err != nil {
				return services.Wrap(services.ErrExternalTool, "transcribe", "extract chunk", fmt.Sprintf("chunk %d", c.index), err)
			}
			return nil
		})
	}
	return group.Wait()
}

func planChunks(duration, size float64, dir string) []chunk {
	count := int(math.Ceil(duration / size))
	chunks := make([]chunk, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * size
		length := math.Min(size, duration-start)
		if length < minChunkSeconds && i > 0 {
			break
		}
		chunks = append(chunks, chunk{
			index:    i,
			start:    start,
			duration: length,
			path:     filepath.Join(dir, fmt.Sprintf("chunk-%04d.wav", i)),
		})
	}
	return chunks
}

func offsetEntries(entries []transcript.RawEntry, offset float64) []transcript.RawEntry {
	out := make([]transcript.RawEntry, len(entries))
	for i, e := range entries {
		tokens := make([]transcript.RawToken, len(e.Tokens))
		for j, tok := range e.Tokens {
			tok.Start += offset
			tok.End += offset
			tokens[j] = tok
		}
		out[i] = transcript.RawEntry{
			Start:  e.Start + offset,
			End:    e.End + offset,
			Text:   e.Text,
			Tokens: tokens,
		}
	}
	return out
}

// notifier serializes callbacks.
type notifier struct {
	mu sync.Mutex
	cb Callbacks
}

func newNotifier(cb Callbacks) *notifier {
	return &notifier{cb: cb}
}

func (n *notifier) preprocessingStarted(path string) {
	n.call(func() {
		if n.cb.OnPreprocessingStarted != nil {
			n.cb.OnPreprocessingStarted(path)
		}
	})
}

func (n *notifier) preprocessingFinished(path string) {
	n.call(func() {
		if n.cb.OnPreprocessingFinished != nil {
			n.cb.OnPreprocessingFinished(path)
		}
	})
}

func (n *notifier) transcriptionStarted(total int) {
	n.call(func() {
		if n.cb.OnTranscriptionStarted != nil {
			n.cb.OnTranscriptionStarted(total)
		}
	})
}

func (n *notifier) transcriptionProgress(index int) {
	n.call(func() {
		if n.cb.OnTranscriptionProgress != nil {
			n.cb.OnTranscriptionProgress(index)
		}
	})
}

func (n *notifier) transcriptionFinished(total int) {
	n.call(func() {
		if n.cb.OnTranscriptionFinished != nil {
			n.cb.OnTranscriptionFinished(total)
		}
	})
}

func (n *notifier) call(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn()
}
