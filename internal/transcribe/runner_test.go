package transcribe

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscribe/internal/media/ffprobe"
	"volscribe/internal/services"
	"volscribe/internal/transcript"
)

type fakeEngine struct {
	mu       sync.Mutex
	seen     []string
	inFlight atomic.Int32
	peak     atomic.Int32
	fail     string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) TranscribeChunk(ctx context.Context, wavPath string) ([]transcript.RawEntry, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	base := filepath.Base(wavPath)
	f.mu.Lock()
	f.seen = append(f.seen, base)
	f.mu.Unlock()
	if base == f.fail {
		return nil, errors.New("engine exploded")
	}
	return []transcript.RawEntry{EntryFromTokens(base, []transcript.RawToken{
		{Start: 1, End: 2, Text: base},
	})}, nil
}

func probeDuration(seconds string) Prober {
	return func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
			Format:  ffprobe.Format{Duration: seconds},
		}, nil
	}
}

func recordingCommands(calls *[][]string, mu *sync.Mutex) CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		mu.Lock()
		defer mu.Unlock()
		*calls = append(*calls, append([]string{name}, args...))
		return nil
	}
}

func TestRunnerStitchesChunksInOrder(t *testing.T) {
	engine := &fakeEngine{}
	var (
		calls [][]string
		mu    sync.Mutex
	)
	runner := NewRunner(engine,
		WithProber(probeDuration("700")),
		WithCommandRunner(recordingCommands(&calls, &mu)),
		WithTempDir(t.TempDir()),
	)

	var events []string
	opts := Options{
		Concurrency:          2,
		ChunkDurationSeconds: 300,
		Callbacks: Callbacks{
			OnPreprocessingStarted:  func(string) { events = append(events, "pre-start") },
			OnPreprocessingFinished: func(string) { events = append(events, "pre-done") },
			OnTranscriptionStarted:  func(total int) { events = append(events, "start:"+strconv.Itoa(total)) },
			OnTranscriptionProgress: func(int) { events = append(events, "chunk") },
			OnTranscriptionFinished: func(total int) { events = append(events, "done:"+strconv.Itoa(total)) },
		},
	}

	raw, err := runner.Transcribe(context.Background(), "/work/1.mp4", opts)
	require.NoError(t, err)
	assert.Equal(t, transcript.TokenTimed, raw.Kind)
	require.Len(t, raw.Entries, 3)

	wantStarts := []float64{1, 301, 601}
	for i, entry := range raw.Entries {
		assert.Equal(t, "chunk-000"+strconv.Itoa(i)+".wav", entry.Text)
		assert.Equal(t, wantStarts[i], entry.Start)
		assert.Equal(t, wantStarts[i], entry.Tokens[0].Start)
		assert.Equal(t, wantStarts[i]+1, entry.Tokens[0].End)
	}

	assert.Equal(t, []string{"pre-start", "pre-done", "start:3", "chunk", "chunk", "chunk", "done:3"}, events)
	assert.LessOrEqual(t, engine.peak.Load(), int32(2))

	require.Len(t, calls, 3)
	last := strings.Join(calls[0], " ")
	for _, c := range calls {
		if strings.Contains(strings.Join(c, " "), "-ss 600.000") {
			last = strings.Join(c, " ")
		}
	}
	assert.Contains(t, last, "-t 100.000")
	assert.Contains(t, last, "-map 0:a:0")
	assert.Contains(t, last, "-ar 16000")
}

func TestRunnerEngineFailureIsExternalTool(t *testing.T) {
	engine := &fakeEngine{fail: "chunk-0001.wav"}
	var (
		calls [][]string
		mu    sync.Mutex
	)
	runner := NewRunner(engine,
		WithProber(probeDuration("600")),
		WithCommandRunner(recordingCommands(&calls, &mu)),
		WithTempDir(t.TempDir()),
	)

	_, err := runner.Transcribe(context.Background(), "/work/2.mp4", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrExternalTool))
	assert.Contains(t, err.Error(), "engine exploded")
}

func TestRunnerExtractionFailure(t *testing.T) {
	runner := NewRunner(&fakeEngine{},
		WithProber(probeDuration("60")),
		WithCommandRunner(func(context.Context, string, ...string) error { return errors.New("ffmpeg missing") }),
		WithTempDir(t.TempDir()),
	)

	_, err := runner.Transcribe(context.Background(), "/work/3.mp4", Options{})
	assert.True(t, errors.Is(err, services.ErrExternalTool))
}

func TestRunnerRejectsMediaWithoutAudio(t *testing.T) {
	prober := func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}, Format: ffprobe.Format{Duration: "10"}}, nil
	}
	runner := NewRunner(&fakeEngine{}, WithProber(prober), WithTempDir(t.TempDir()))

	_, err := runner.Transcribe(context.Background(), "/work/4.mp4", Options{})
	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.True(t, errors.Is(err, ffprobe.ErrNoAudio))
}

func TestPlanChunks(t *testing.T) {
	chunks := planChunks(600.2, 300, "/tmp/x")
	require.Len(t, chunks, 2, "a trailing sliver below the minimum is dropped")
	assert.Equal(t, 300.0, chunks[1].start)

	chunks = planChunks(45, 300, "/tmp/x")
	require.Len(t, chunks, 1)
	assert.Equal(t, 45.0, chunks[0].duration)
}

func TestEnsurePositiveDurations(t *testing.T) {
	tokens := []transcript.RawToken{{Start: 1, End: 1}, {Start: 2, End: 1.5}, {Start: 3, End: 4}}
	EnsurePositiveDurations(tokens)
	assert.InDelta(t, 1.01, tokens[0].End, 1e-9)
	assert.InDelta(t, 2.01, tokens[1].End, 1e-9)
	assert.Equal(t, 4.0, tokens[2].End)
}
