package archivestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"volscribe/internal/fileutil"
)

// Filesystem stores objects as files in a directory.
type Filesystem struct {
	dir string
}

// NewFilesystem returns a backend rooted at dir.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{dir: dir}
}

func (f *Filesystem) Name() string { return "filesystem" }

func (f *Filesystem) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key))
}

func (f *Filesystem) Put(_ context.Context, key string, data []byte) error {
	return fileutil.WriteFileAtomic(f.path(key), data, 0o644)
}

func (f *Filesystem) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *Filesystem) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (f *Filesystem) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
