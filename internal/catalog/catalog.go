// Package catalog resolves collections into their numbered volumes, either
// from the remote collections API or from a local YAML/JSON manifest.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"volscribe/internal/artifacts"
	"volscribe/internal/config"
	"volscribe/internal/httpjson"
	"volscribe/internal/logging"
	"volscribe/internal/services"
)

// Collection is one catalog entry.
type Collection struct {
	ID      string             `json:"id" yaml:"id"`
	Title   string             `json:"title" yaml:"title"`
	Volumes []artifacts.Volume `json:"volumes,omitempty" yaml:"volumes"`
}

// ListOptions filters a collection listing.
type ListOptions struct {
	ID      string
	Library string
	Limit   int
	Before  string
}

// Source lists collections and their volumes.
type Source interface {
	ListCollections(ctx context.Context, opts ListOptions) ([]Collection, error)
	ListVolumes(ctx context.Context, collectionID string) ([]artifacts.Volume, error)
}

// ErrNoSource is returned when neither an endpoint nor a manifest is configured.
var ErrNoSource = errors.New("catalog: set catalog.endpoint, catalog.manifest or VOLSCRIBE_CATALOG_ENDPOINT")

// New returns the configured Source. The API endpoint takes precedence over
// a manifest.
func New(cfg *config.Config, logger *slog.Logger) (Source, error) {
	logger = logging.NewComponentLogger(logger, "catalog")
	switch {
	case cfg.Catalog.Endpoint != "":
		client := httpjson.New(
			httpjson.WithTimeout(cfg.CatalogTimeout()),
			httpjson.WithMaxRetries(cfg.Catalog.MaxRetries),
			httpjson.WithLogger(logger),
		)
		return NewClient(cfg.Catalog.Endpoint, client,
			WithLibrary(cfg.Catalog.Library),
			WithPageLimit(cfg.Catalog.PageLimit),
			WithLogger(logger),
		), nil
	case cfg.Catalog.Manifest != "":
		manifest, err := LoadManifest(cfg.Catalog.Manifest)
		if err != nil {
			return nil, err
		}
		return manifest, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "select source", "", ErrNoSource)
	}
}

// FilterVolume narrows volumes to number. Zero keeps every volume.
func FilterVolume(volumes []artifacts.Volume, number int) []artifacts.Volume {
	if number == 0 {
		return volumes
	}
	return slices.DeleteFunc(slices.Clone(volumes), func(v artifacts.Volume) bool {
		return v.Number != number
	})
}

func sortVolumes(volumes []artifacts.Volume) {
	slices.SortStableFunc(volumes, func(a, b artifacts.Volume) int {
		return a.Number - b.Number
	})
}
