package artifacts_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscribe/internal/artifacts"
)

func vols(numbers ...int) []artifacts.Volume {
	out := make([]artifacts.Volume, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, artifacts.Volume{ExternalID: "vid" + string(rune('a'+n)), Number: n})
	}
	return out
}

func TestRemainingTranscribed(t *testing.T) {
	layout := artifacts.NewLayout("mp4")

	remaining := layout.Remaining(artifacts.StageTranscribed, vols(1, 2, 3), []string{"1.json", "2.mp4", "notes.txt"})

	assert.Equal(t, []int{2, 3}, artifacts.Numbers(remaining))
}

func TestRemainingDownloadedAcceptsAnyMediaExtension(t *testing.T) {
	layout := artifacts.NewLayout("mp4")

	remaining := layout.Remaining(artifacts.StageDownloaded, vols(1, 2, 3, 4), []string{"1.mp4", "2.wav", "3.mp3", "4.json"})

	assert.Equal(t, []int{4}, artifacts.Numbers(remaining))
}

func TestRemainingIgnoresNearMisses(t *testing.T) {
	layout := artifacts.NewLayout("mp4")

	remaining := layout.Remaining(artifacts.StageTranscribed, vols(1, 10), []string{"10.json.tmp", "1.JSON", "01.json"})

	assert.Equal(t, []int{1, 10}, artifacts.Numbers(remaining))
}

func TestRemainingPreservesInputOrder(t *testing.T) {
	layout := artifacts.NewLayout("mp4")

	remaining := layout.Remaining(artifacts.StageTranscribed, vols(5, 2, 9), nil)

	assert.Equal(t, []int{5, 2, 9}, artifacts.Numbers(remaining))
}

func TestRemainingWithCustomContainer(t *testing.T) {
	layout := artifacts.NewLayout("webm")

	remaining := layout.Remaining(artifacts.StageDownloaded, vols(1, 2), []string{"1.webm", "2.mp4"})

	assert.Equal(t, []int{2}, artifacts.Numbers(remaining))
}

func TestDownloadedPrefersWav(t *testing.T) {
	layout := artifacts.NewLayout("mp4")

	got := layout.Downloaded(vols(1, 2, 3), []string{"1.mp4", "1.wav", "3.mp4"})

	require.Len(t, got, 2)
	assert.Equal(t, "1.wav", got[0].FileName)
	assert.Equal(t, 1, got[0].Volume.Number)
	assert.Equal(t, "3.mp4", got[1].FileName)
}

func TestStageOf(t *testing.T) {
	layout := artifacts.NewLayout("mp4")
	files := []string{"1.json", "1.mp4", "2.mp3"}

	assert.Equal(t, artifacts.StageTranscribed, layout.StageOf(vols(1)[0], files))
	assert.Equal(t, artifacts.StageDownloaded, layout.StageOf(vols(2)[0], files))
	assert.Equal(t, artifacts.StageNotStarted, layout.StageOf(vols(3)[0], files))
	assert.Equal(t, "transcribed", artifacts.StageTranscribed.String())
}

func TestArtifactName(t *testing.T) {
	v := artifacts.Volume{ExternalID: "abc", Number: 7}

	assert.Equal(t, "7.json", artifacts.ArtifactName(v, ".json"))
	assert.Equal(t, "7.mp4", artifacts.ArtifactName(v, "mp4"))
	assert.Equal(t, filepath.Join("dir", "7.json"), artifacts.TranscriptPath("dir", v))
}

func TestListDirSkipsHiddenAndDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1.json", "2.mp4", ".2.mp4.part-123"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "3.json"), 0o755))

	names, err := artifacts.ListDir(dir)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.json", "2.mp4"}, names)
}

func TestListDirMissingDirectory(t *testing.T) {
	names, err := artifacts.ListDir(filepath.Join(t.TempDir(), "absent"))

	require.NoError(t, err)
	assert.Empty(t, names)
}
