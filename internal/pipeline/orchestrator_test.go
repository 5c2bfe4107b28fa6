package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"volscribe/internal/artifacts"
	"volscribe/internal/mirror"
	"volscribe/internal/pipeline/mocks"
	"volscribe/internal/runlog"
	"volscribe/internal/services"
	"volscribe/internal/transcribe"
	"volscribe/internal/transcript"
)

type harness struct {
	catalog     *mocks.MockCatalog
	media       *mocks.MockMediaSource
	fetcher     *mocks.MockFetcher
	transcriber *mocks.MockTranscriber
	prior       *mocks.MockPriorTranscripts
	archive     *mocks.MockArchiveStore
	workDir     string
}

func newHarness(t *testing.T) *harness {
	ctrl := gomock.NewController(t)
	return &harness{
		catalog:     mocks.NewMockCatalog(ctrl),
		media:       mocks.NewMockMediaSource(ctrl),
		fetcher:     mocks.NewMockFetcher(ctrl),
		transcriber: mocks.NewMockTranscriber(ctrl),
		prior:       mocks.NewMockPriorTranscripts(ctrl),
		archive:     mocks.NewMockArchiveStore(ctrl),
		workDir:     t.TempDir(),
	}
}

func (h *harness) deps(withPrior bool) Dependencies {
	d := Dependencies{
		Catalog:     h.catalog,
		Media:       h.media,
		Fetcher:     h.fetcher,
		Transcriber: h.transcriber,
		Archive:     h.archive,
	}
	if withPrior {
		d.Prior = h.prior
	}
	return d
}

func (h *harness) orchestrator(t *testing.T, deps Dependencies) *Orchestrator {
	t.Helper()
	o, err := New(deps, Options{WorkDir: h.workDir, Container: "mp4", MaxPasses: 3}, nil)
	require.NoError(t, err)
	o.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	seq := 0
	o.newID = func() string {
		seq++
		return "run-" + string(rune('0'+seq))
	}
	return o
}

var twoVolumes = []artifacts.Volume{{ExternalID: "vidA", Number: 1}, {ExternalID: "vidB", Number: 2}}

func writeMedia(_ context.Context, candidates []string, dest string) (string, error) {
	if err := os.WriteFile(dest, []byte("media"), 0o644); err != nil {
		return "", err
	}
	return candidates[0], nil
}

func rawSpeech(words ...string) transcript.RawResult {
	tokens := make([]transcript.RawToken, len(words))
	for i, w := range words {
		tokens[i] = transcript.RawToken{Start: float64(i), End: float64(i) + 0.8, Text: w}
	}
	return transcript.RawResult{
		Kind:    transcript.TokenTimed,
		Entries: []transcript.RawEntry{transcribe.EntryFromTokens("", tokens)},
	}
}

func listing(t *testing.T, dir string) []string {
	t.Helper()
	files, err := artifacts.ListDir(dir)
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func TestRunTranscribesAndIntegratesCollection(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	ctx := context.Background()

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "1432").Return(twoVolumes, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[0]).Return([]string{"https://a.example/1.mp4?sig=secret"}, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[1]).Return([]string{"https://a.example/2.mp4"}, nil)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeMedia).Times(2)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, opts transcribe.Options) (transcript.RawResult, error) {
			assert.Equal(t, ".mp4", filepath.Ext(path))
			assert.NotNil(t, opts.Callbacks.OnTranscriptionStarted)
			return rawSpeech("بسم", "الله."), nil
		}).Times(2)
	h.archive.EXPECT().Put(gomock.Any(), "1432", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte) error {
			return transcript.ValidateArchive(data)
		})

	summary, err := o.Run(ctx, "1432", RunOptions{Upload: true})
	require.NoError(t, err)
	assert.Nil(t, summary.Gap)
	assert.True(t, summary.Uploaded)
	assert.Equal(t, 1, summary.Passes)
	assert.Equal(t, []int{1, 2}, summary.Transcribed)
	assert.Empty(t, summary.Remaining)
	assert.Equal(t, StateIntegrated, summary.States[1])

	assert.Equal(t, []string{"1.json", "1.mp4", "2.json", "2.mp4"}, listing(t, o.CollectionDir("1432")))

	data, err := os.ReadFile(o.ArchivePath("1432"))
	require.NoError(t, err)
	archive, err := transcript.DecodeArchive(data)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, archive.Volumes())
	assert.Equal(t, "0:00: بسم الله.", archive.Transcripts[0].Text)
	assert.Equal(t, []string{mirror.Redact("https://a.example/1.mp4?sig=secret")}, archive.Transcripts[0].SourceURLs)
	assert.NotContains(t, string(data), "secret")
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	ctx := context.Background()

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "7").Return(twoVolumes, nil).Times(2)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), gomock.Any()).Return([]string{"https://m.example/x"}, nil).Times(2)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeMedia).Times(2)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(rawSpeech("نعم."), nil).Times(2)

	first, err := o.Run(ctx, "7", RunOptions{})
	require.NoError(t, err)
	before := listing(t, o.CollectionDir("7"))

	second, err := o.Run(ctx, "7", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, listing(t, o.CollectionDir("7")), "no duplicate artifacts")
	assert.Subset(t, first.Remaining, second.Remaining)
	assert.Zero(t, second.Passes)
	assert.Equal(t, first.Transcribed, second.Transcribed)
}

func TestRunRecordsGapAndSkipsPartialUpload(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	ctx := context.Background()

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "55").Return(twoVolumes, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[0]).Return([]string{"https://m.example/1"}, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[1]).Return([]string{"https://m.example/2"}, nil).Times(2)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), []string{"https://m.example/1"}, gomock.Any()).DoAndReturn(writeMedia)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), []string{"https://m.example/2"}, gomock.Any()).
		Return("", mirror.ErrAllCandidatesFailed).Times(2)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(rawSpeech("تم."), nil)

	summary, err := o.Run(ctx, "55", RunOptions{Upload: true})
	require.NoError(t, err)
	require.NotNil(t, summary.Gap)
	assert.Equal(t, []int{2}, summary.Gap.Volumes)
	assert.Equal(t, []int{2}, summary.Remaining)
	assert.Equal(t, 2, summary.Passes, "third pass skipped once the remaining set stops shrinking")
	assert.False(t, summary.Uploaded)
	assert.Equal(t, StatePending, summary.States[2])
	require.Len(t, summary.Failures, 2)
	assert.True(t, errors.Is(summary.Failures[0], mirror.ErrAllCandidatesFailed))

	var gap *IntegrationGap
	assert.True(t, errors.As(summary.Gap, &gap))
	assert.Contains(t, gap.Error(), "missing from archive: 2")

	data, err := os.ReadFile(o.ArchivePath("55"))
	require.NoError(t, err)
	archive, err := transcript.DecodeArchive(data)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, archive.Volumes())
}

func TestRunUploadsPartialWhenAllowed(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	o.opts.MaxPasses = 1

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "56").Return(twoVolumes, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[0]).Return([]string{"u1"}, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[1]).Return(nil, services.Wrap(services.ErrNotFound, "media", "resolve", "no formats", nil))
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), []string{"u1"}, gomock.Any()).DoAndReturn(writeMedia)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(rawSpeech("تم."), nil)
	h.archive.EXPECT().Put(gomock.Any(), "56", gomock.Any()).Return(nil)

	summary, err := o.Run(context.Background(), "56", RunOptions{Upload: true, AllowPartialUpload: true})
	require.NoError(t, err)
	assert.NotNil(t, summary.Gap)
	assert.True(t, summary.Uploaded)
}

func TestRunUsesPriorTranscripts(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(true))
	stamp := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "90").Return(twoVolumes, nil)
	h.prior.EXPECT().FindExistingTranscriptURL(gomock.Any(), "vidA").Return("https://idx.example/a.json", true, nil)
	h.prior.EXPECT().FetchExistingTranscript(gomock.Any(), "https://idx.example/a.json").Return(transcript.RawResult{
		Kind:      transcript.SegmentTimed,
		Entries:   []transcript.RawEntry{{Start: 0, End: 2, Text: "Hello world."}},
		Timestamp: &stamp,
		SourceURL: "https://idx.example/a.srt",
	}, nil)
	h.prior.EXPECT().FindExistingTranscriptURL(gomock.Any(), "vidB").Return("", false, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[1]).Return([]string{"u2"}, nil)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), []string{"u2"}, gomock.Any()).DoAndReturn(writeMedia)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(rawSpeech("ok."), nil)

	summary, err := o.Run(context.Background(), "90", RunOptions{})
	require.NoError(t, err)
	assert.Nil(t, summary.Gap)
	assert.Equal(t, []string{"1.json", "2.json", "2.mp4"}, listing(t, o.CollectionDir("90")))

	var vt transcript.VolumeTranscript
	data, err := os.ReadFile(filepath.Join(o.CollectionDir("90"), "1.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &vt))
	require.NotNil(t, vt.Timestamp)
	assert.True(t, stamp.Equal(*vt.Timestamp))
	assert.Equal(t, []string{"https://idx.example/a.srt"}, vt.SourceURLs)
	require.Len(t, vt.Segments, 1)
	assert.Len(t, vt.Segments[0].Tokens, 2)
}

func TestRunSkipPriorAndVolumeFilter(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(true))

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "91").Return(twoVolumes, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[1]).Return([]string{"u2"}, nil)
	h.fetcher.EXPECT().FetchVolume(gomock.Any(), []string{"u2"}, gomock.Any()).DoAndReturn(writeMedia)
	h.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(rawSpeech("ok."), nil)

	summary, err := o.Run(context.Background(), "91", RunOptions{Volume: 2, SkipPrior: true})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, summary.Volumes)
	assert.Nil(t, summary.Gap)
}

func TestRunUnknownVolume(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	h.catalog.EXPECT().ListVolumes(gomock.Any(), "92").Return(twoVolumes, nil)

	_, err := o.Run(context.Background(), "92", RunOptions{Volume: 9})
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestRunFailsWhenCatalogUnavailable(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	h.catalog.EXPECT().ListVolumes(gomock.Any(), "93").Return(nil, services.Wrap(services.ErrTransient, "catalog", "list", "", errors.New("dial tcp")))

	_, err := o.Run(context.Background(), "93", RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection 93")
	assert.True(t, errors.Is(err, services.ErrTransient))
}

func TestRunRejectsLockedCollection(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	dir := o.CollectionDir("94")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	other := flock.New(filepath.Join(dir, ".lock"))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	_, err = o.Run(context.Background(), "94", RunOptions{})
	assert.True(t, errors.Is(err, ErrCollectionLocked))
}

func TestRunRejectsInvalidCollectionID(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	for _, id := range []string{"", "../x", ".hidden"} {
		_, err := o.Run(context.Background(), id, RunOptions{})
		assert.True(t, errors.Is(err, services.ErrValidation), id)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	ctx, cancel := context.WithCancel(context.Background())

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "95").Return(twoVolumes, nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), twoVolumes[0]).
		DoAndReturn(func(context.Context, artifacts.Volume) ([]string, error) {
			cancel()
			return nil, context.Canceled
		})

	_, err := o.Run(ctx, "95", RunOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIntegrationQuarantinesDamagedTranscript(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	o.opts.MaxPasses = 1
	dir := o.CollectionDir("96")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.json"), []byte(`{"volume":2,"segments":[{"start":0,"end":1,"body":"a.","tokens":[{"start":0,"end":1,"text":"a."}]}]}`), 0o644))

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "96").Return(twoVolumes, nil)

	summary, err := o.Run(context.Background(), "96", RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, summary.Gap)
	assert.Equal(t, []int{1}, summary.Gap.Volumes)
	assert.Equal(t, []string{"2.json"}, listing(t, dir))
	_, err = os.Stat(filepath.Join(dir, ".1.json.invalid"))
	assert.NoError(t, err)
}

func TestRunArchiveWriteFailureNamesCollection(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t, h.deps(false))
	dir := o.CollectionDir("98")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, v := range twoVolumes {
		body := fmt.Sprintf(`{"volume":%d,"segments":[{"start":0,"end":1,"body":"a.","tokens":[{"start":0,"end":1,"text":"a."}]}]}`, v.Number)
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.json", v.Number)), []byte(body), 0o644))
	}
	blocked := o.ArchivePath("98")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "occupied"), 0o755))

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "98").Return(twoVolumes, nil)

	_, err := o.Run(context.Background(), "98", RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
	assert.Contains(t, err.Error(), "collection 98")
}

func TestRunRecordsLedger(t *testing.T) {
	h := newHarness(t)
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockRunLedger(ctrl)
	deps := h.deps(false)
	deps.Ledger = ledger
	o := h.orchestrator(t, deps)
	o.opts.MaxPasses = 1

	h.catalog.EXPECT().ListVolumes(gomock.Any(), "97").Return(twoVolumes[:1], nil)
	h.media.EXPECT().ResolveCandidateURLs(gomock.Any(), gomock.Any()).Return(nil, errors.New("yt-dlp exploded"))

	gomock.InOrder(
		ledger.EXPECT().StartRun(gomock.Any(), "run-1", "97", gomock.Any()).Return(nil),
		ledger.EXPECT().RecordOutcome(gomock.Any(), "run-1", 1, StageDownload, runlog.OutcomeFailed, "", gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		ledger.EXPECT().FinishRun(gomock.Any(), "run-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, f runlog.Finish) error {
				assert.Equal(t, runlog.StatusPartial, f.Status)
				assert.Equal(t, []int{1}, f.Remaining)
				return nil
			}),
	)

	summary, err := o.Run(context.Background(), "97", RunOptions{})
	require.NoError(t, err, "ledger failures are not fatal")
	assert.Empty(t, summary.ArchivePath, "no archive without volumes")
}

func TestStatusDerivesStates(t *testing.T) {
	layout := artifacts.NewLayout("mp4")
	vols := []artifacts.Volume{{ExternalID: "c", Number: 3}, {ExternalID: "a", Number: 1}, {ExternalID: "b", Number: 2}}
	rows := Status(layout, vols, []string{"1.json", "2.mp3", "2.mp4"})

	require.Len(t, rows, 3)
	assert.Equal(t, StateTranscribed, rows[0].State)
	assert.Equal(t, StateDownloaded, rows[1].State)
	assert.Equal(t, "2.mp3", rows[1].MediaFile)
	assert.Equal(t, "pending", rows[2].StateName)
}
