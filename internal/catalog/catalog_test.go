package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscribe/internal/artifacts"
	"volscribe/internal/config"
	"volscribe/internal/httpjson"
	"volscribe/internal/services"
)

func TestParseVolumeMap(t *testing.T) {
	tests := []struct {
		name string
		fid  string
		want []artifacts.Volume
	}{
		{"empty", "", nil},
		{"single id", "dQw4w9WgXcQ", []artifacts.Volume{{ExternalID: "dQw4w9WgXcQ", Number: 1}}},
		{"map sorted by number", `{"10":"c","2":"b","1":"a"}`, []artifacts.Volume{
			{ExternalID: "a", Number: 1},
			{ExternalID: "b", Number: 2},
			{ExternalID: "c", Number: 10},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVolumeMap(tt.fid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVolumeMapRejectsBadNumbers(t *testing.T) {
	_, err := ParseVolumeMap(`{"one":"a"}`)
	assert.Error(t, err)
	_, err = ParseVolumeMap(`{"0":"a"}`)
	assert.Error(t, err)
	_, err = ParseVolumeMap(`{"1":""}`)
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	hc := httpjson.New(httpjson.WithBackoff(time.Millisecond, time.Millisecond), httpjson.WithMaxRetries(1))
	return NewClient(srv.URL+"/collections.php", hc, WithLibrary("62"), WithPageLimit(10))
}

func TestClientListCollectionsSendsPagingParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "62", q.Get("library"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "9999", q.Get("before"))
		_, _ = w.Write([]byte(`[
			{"id": 7, "display_name": "Sharh", "author_name": "Ibn Qudama"},
			{"id": "8", "display_name": "Untitled"}
		]`))
	})

	got, err := client.ListCollections(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []Collection{
		{ID: "7", Title: "Sharh, Ibn Qudama"},
		{ID: "8", Title: "Untitled"},
	}, got)
}

func TestClientListVolumes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1432", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[{"id": 1432, "display_name": "Dars", "fid": "{\"2\":\"vid2\",\"1\":\"vid1\"}"}]`))
	})

	got, err := client.ListVolumes(context.Background(), "1432")
	require.NoError(t, err)
	assert.Equal(t, []artifacts.Volume{{ExternalID: "vid1", Number: 1}, {ExternalID: "vid2", Number: 2}}, got)
}

func TestClientListVolumesMissingCollection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.ListVolumes(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestClientListVolumesUnreachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListVolumes(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, services.IsRetryable(err))
}

const manifestYAML = `
collections:
  - id: "1432"
    title: Dars
    volumes:
      - volume: 2
        id: vid2
      - volume: 1
        id: vid1
  - id: "99"
    title: Empty
`

func TestManifestListVolumes(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	got, err := m.ListVolumes(context.Background(), "1432")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, artifacts.Numbers(got))

	_, err = m.ListVolumes(context.Background(), "99")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	_, err = m.ListVolumes(context.Background(), "nope")
	assert.True(t, errors.Is(err, services.ErrNotFound))

	cols, err := m.ListCollections(context.Background(), ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []Collection{{ID: "1432", Title: "Dars"}}, cols)
}

func TestManifestAcceptsJSON(t *testing.T) {
	m, err := ParseManifest([]byte(`{"collections":[{"id":"5","volumes":[{"volume":1,"id":"x"}]}]}`))
	require.NoError(t, err)
	assert.Len(t, m.Collections, 1)
}

func TestManifestValidation(t *testing.T) {
	for name, doc := range map[string]string{
		"missing id":       "collections:\n  - title: x\n",
		"duplicate volume": "collections:\n  - id: a\n    volumes:\n      - {volume: 1, id: x}\n      - {volume: 1, id: y}\n",
		"missing media":    "collections:\n  - id: a\n    volumes:\n      - {volume: 1}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(doc))
			assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)
		})
	}
}

func TestNewPrefersEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Endpoint = "https://catalog.example/collections"
	cfg.Catalog.Manifest = "/does/not/matter.yaml"

	src, err := New(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Client{}, src)
}

func TestNewLoadsManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o644))
	cfg := config.Default()
	cfg.Catalog.Manifest = path

	src, err := New(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Manifest{}, src)
}

func TestNewWithoutSource(t *testing.T) {
	cfg := config.Default()
	_, err := New(&cfg, nil)
	assert.True(t, errors.Is(err, ErrNoSource))
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

func TestFilterVolume(t *testing.T) {
	volumes := []artifacts.Volume{{ExternalID: "a", Number: 1}, {ExternalID: "b", Number: 2}}
	assert.Equal(t, volumes, FilterVolume(volumes, 0))
	assert.Equal(t, []artifacts.Volume{{ExternalID: "b", Number: 2}}, FilterVolume(volumes, 2))
	assert.Empty(t, FilterVolume(volumes, 3))
	assert.Len(t, volumes, 2)
}
