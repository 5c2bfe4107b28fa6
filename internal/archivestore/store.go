// Package archivestore keeps collection archives in an object store.
//
// Archives are stored gzip-compressed under "<collectionId>.json.gz". Reads
// fall back to a legacy uncompressed "<collectionId>.json" object, and an
// upload removes that legacy object once the compressed copy is written.
package archivestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"volscribe/internal/logging"
	"volscribe/internal/services"
	"volscribe/internal/transcript"
)

// ErrNotFound is returned by backends for missing objects.
var ErrNotFound = errors.New("archive object not found")

const (
	compressedExt = ".json.gz"
	legacyExt     = ".json"
)

// Backend is a flat key/value object store.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
}

// Store applies the archive key layout and gzip codec over a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	closer  func() error
}

// NewStore wraps backend.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "archive-store"),
	}
}

// Backend returns the backend name.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Close releases backend clients.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Key returns the compressed object key for a collection.
func Key(collectionID string) string {
	return collectionID + compressedExt
}

// LegacyKey returns the uncompressed object key for a collection.
func LegacyKey(collectionID string) string {
	return collectionID + legacyExt
}

func checkID(collectionID string) error {
	if strings.TrimSpace(collectionID) == "" || strings.ContainsAny(collectionID, `/\`) || strings.HasPrefix(collectionID, ".") {
		return services.Wrap(services.ErrValidation, "archive", "key", fmt.Sprintf("invalid collection id %q", collectionID), nil)
	}
	return nil
}

// Put validates archive against the archive contract, compresses it and
// uploads it, then removes any legacy uncompressed object.
func (s *Store) Put(ctx context.Context, collectionID string, archive []byte) error {
	if err := checkID(collectionID); err != nil {
		return err
	}
	if err := transcript.ValidateArchive(archive); err != nil {
		return services.Wrap(services.ErrValidation, "archive", "upload", collectionID, err)
	}
	compressed, err := Compress(archive)
	if err != nil {
		return services.Wrap(services.ErrValidation, "archive", "compress", collectionID, err)
	}
	if err := s.backend.Put(ctx, Key(collectionID), compressed); err != nil {
		return services.Wrap(services.ErrTransient, "archive", "upload", Key(collectionID), err)
	}
	if err := s.backend.Delete(ctx, LegacyKey(collectionID)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "legacy archive cleanup failed", "archive_legacy_cleanup",
			logging.String("key", LegacyKey(collectionID)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale uncompressed archive left in store"),
			logging.String(logging.FieldErrorHint, "delete the legacy object manually"),
		)
	}
	logging.WithContext(ctx, s.logger).Info("archive uploaded",
		logging.String("backend", s.backend.Name()),
		logging.String("key", Key(collectionID)),
		logging.String("size", humanize.Bytes(uint64(len(compressed)))),
		logging.String("uncompressed", humanize.Bytes(uint64(len(archive)))),
	)
	return nil
}

// Get returns the uncompressed archive bytes, preferring the compressed
// object and falling back to the legacy one. Missing archives wrap
// services.ErrNotFound.
func (s *Store) Get(ctx context.Context, collectionID string) ([]byte, error) {
	if err := checkID(collectionID); err != nil {
		return nil, err
	}
	data, err := s.backend.Get(ctx, Key(collectionID))
	switch {
	case err == nil:
		out, derr := Decompress(data)
		if derr != nil {
			return nil, services.Wrap(services.ErrValidation, "archive", "decompress", Key(collectionID), derr)
		}
		return out, nil
	case !errors.Is(err, ErrNotFound):
		return nil, services.Wrap(services.ErrTransient, "archive", "download", Key(collectionID), err)
	}

	data, err = s.backend.Get(ctx, LegacyKey(collectionID))
	switch {
	case err == nil:
		logging.WithContext(ctx, s.logger).Debug("using legacy uncompressed archive", logging.String("key", LegacyKey(collectionID)))
		return data, nil
	case errors.Is(err, ErrNotFound):
		return nil, services.Wrap(services.ErrNotFound, "archive", "download", collectionID, err)
	default:
		return nil, services.Wrap(services.ErrTransient, "archive", "download", LegacyKey(collectionID), err)
	}
}

// Exists reports whether either the compressed or legacy object is present.
func (s *Store) Exists(ctx context.Context, collectionID string) (bool, error) {
	if err := checkID(collectionID); err != nil {
		return false, err
	}
	for _, key := range []string{Key(collectionID), LegacyKey(collectionID)} {
		ok, err := s.backend.Exists(ctx, key)
		if err != nil {
			return false, services.Wrap(services.ErrTransient, "archive", "check", key, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes both the compressed and legacy objects.
func (s *Store) Delete(ctx context.Context, collectionID string) error {
	if err := checkID(collectionID); err != nil {
		return err
	}
	var errs []error
	for _, key := range []string{Key(collectionID), LegacyKey(collectionID)} {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return services.Wrap(services.ErrTransient, "archive", "delete", collectionID, err)
	}
	return nil
}

// Compress gzips data at best compression.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
