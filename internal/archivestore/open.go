package archivestore

import (
	"context"
	"log/slog"

	"volscribe/internal/config"
	"volscribe/internal/services"
)

// Open builds the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Archive, logger *slog.Logger) (*Store, error) {
	switch cfg.Backend {
	case config.ArchiveBackendFilesystem:
		return NewStore(NewFilesystem(cfg.Dir), logger), nil
	case config.ArchiveBackendAzureBlob:
		backend, err := NewAzureBlob(cfg.AzureAccountURL, cfg.AzureContainer)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "archive", "open", "azure blob", err)
		}
		return NewStore(backend, logger), nil
	case config.ArchiveBackendGCS:
		backend, err := NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "archive", "open", "gcs", err)
		}
		store := NewStore(backend, logger)
		store.closer = backend.Close
		return store, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "archive", "open",
			"no archive backend configured (set archive.backend)", nil)
	}
}
