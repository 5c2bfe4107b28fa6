package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscribe/internal/artifacts"
	"volscribe/internal/mirror"
)

type stubRacer struct {
	winner string
	err    error
	calls  int
}

func (s *stubRacer) Race(context.Context, []string) (mirror.Result, error) {
	s.calls++
	return mirror.Result{URL: s.winner}, s.err
}

func TestFetchWritesDestination(t *testing.T) {
	body := strings.Repeat("media", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "1.mp4")

	got, err := New().Fetch(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	names, err := artifacts.ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.mp4"}, names)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := New().Fetch(context.Background(), srv.URL+"/x?sig=secret", filepath.Join(dir, "2.mp4"))

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr), "expected FetchError, got %v", err)
	assert.Equal(t, srv.URL+"/x?sig=secret", ferr.URL)
	assert.NotContains(t, ferr.Error(), "secret")
	assertEmptyDir(t, dir)
}

func TestFetchTruncatedBodyLeavesNoArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("only a little"))
		// Returning early closes the connection mid-body.
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := New().Fetch(context.Background(), srv.URL, filepath.Join(dir, "3.mp4"))

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assertEmptyDir(t, dir)
}

func TestFetchVolumeRacesMultipleCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("winner"))
	}))
	defer srv.Close()

	racer := &stubRacer{winner: srv.URL + "/b"}
	dest := filepath.Join(t.TempDir(), "4.mp4")

	_, err := New(WithRacer(racer)).FetchVolume(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, racer.calls)
}

func TestFetchVolumeSingleCandidateSkipsRace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("only"))
	}))
	defer srv.Close()

	racer := &stubRacer{}
	_, err := New(WithRacer(racer)).FetchVolume(context.Background(), []string{srv.URL}, filepath.Join(t.TempDir(), "5.mp4"))
	require.NoError(t, err)
	assert.Zero(t, racer.calls)
}

func TestFetchVolumePropagatesRaceFailure(t *testing.T) {
	racer := &stubRacer{err: mirror.ErrAllCandidatesFailed}
	_, err := New(WithRacer(racer)).FetchVolume(context.Background(), []string{"http://a", "http://b"}, filepath.Join(t.TempDir(), "6.mp4"))
	assert.True(t, errors.Is(err, mirror.ErrAllCandidatesFailed))

	_, err = New(WithRacer(racer)).FetchVolume(context.Background(), nil, filepath.Join(t.TempDir(), "7.mp4"))
	assert.True(t, errors.Is(err, mirror.ErrAllCandidatesFailed))
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
