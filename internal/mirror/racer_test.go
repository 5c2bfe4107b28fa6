package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadServer(t *testing.T, size int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", size)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// stallingServer sends headers then blocks until the client goes away.
func stallingServer(t *testing.T, cancelled chan<- struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		if cancelled != nil {
			cancelled <- struct{}{}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRaceReturnsSucceedingCandidate(t *testing.T) {
	good := payloadServer(t, 1024)
	bad := failingServer(t, http.StatusInternalServerError)

	racer := NewRacer(WithSampleBytes(512))
	res, err := racer.Race(context.Background(), []string{bad.URL + "/v.mp4", good.URL + "/v.mp4"})
	require.NoError(t, err)
	assert.Equal(t, good.URL+"/v.mp4", res.URL)
	assert.Equal(t, int64(512), res.Bytes)
	assert.Positive(t, res.BytesPerSecond)
}

func TestRaceAcceptsBodyShorterThanSample(t *testing.T) {
	small := payloadServer(t, 10)

	res, err := NewRacer().Race(context.Background(), []string{small.URL})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Bytes)
}

func TestRaceCancelsLosers(t *testing.T) {
	cancelled := make(chan struct{}, 1)
	slow := stallingServer(t, cancelled)
	fast := payloadServer(t, 2048)

	started := time.Now()
	res, err := NewRacer(WithSampleBytes(1024)).Race(context.Background(), []string{slow.URL, fast.URL})
	require.NoError(t, err)
	assert.Equal(t, fast.URL, res.URL)
	assert.Less(t, time.Since(started), 5*time.Second)

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("losing probe was not cancelled")
	}
}

func TestRaceAllCandidatesFail(t *testing.T) {
	a := failingServer(t, http.StatusNotFound)
	b := failingServer(t, http.StatusForbidden)

	_, err := NewRacer().Race(context.Background(), []string{a.URL, b.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllCandidatesFailed))
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "403")
}

func TestRaceWithoutCandidates(t *testing.T) {
	_, err := NewRacer().Race(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrAllCandidatesFailed))

	_, err = NewRacer().Race(context.Background(), []string{"", ""})
	assert.True(t, errors.Is(err, ErrAllCandidatesFailed))
}

func TestRaceTimeoutFailsStalledCandidates(t *testing.T) {
	slow := stallingServer(t, nil)

	_, err := NewRacer(WithTimeout(100*time.Millisecond)).Race(context.Background(), []string{slow.URL})
	assert.True(t, errors.Is(err, ErrAllCandidatesFailed))
}

func TestRedactDropsQuery(t *testing.T) {
	assert.Equal(t, "https://cdn.example/v.mp4", Redact("https://cdn.example/v.mp4?sig=secret&expire=1"))
}
