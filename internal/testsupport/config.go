// Package testsupport builds isolated configurations and fixtures for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"volscribe/internal/config"
)

// ConfigOption adjusts a config produced by NewConfig. Options run after the
// temp layout exists, so they may write files under BaseDir.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory: work, logs and
// state dirs, a manifest-backed catalog and a filesystem archive store. No
// option reaches the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		WorkDir:  filepath.Join(base, "work"),
		LogDir:   filepath.Join(base, "logs"),
		StateDir: filepath.Join(base, "state"),
	}
	cfg.Catalog.Manifest = filepath.Join(base, "manifest.yaml")
	cfg.Archive.Backend = config.ArchiveBackendFilesystem
	cfg.Archive.Dir = filepath.Join(base, "archive")

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// BaseDir is the temp root NewConfig created for cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithManifest writes the catalog manifest.
func WithManifest(content string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		if err := os.WriteFile(cfg.Catalog.Manifest, []byte(content), 0o644); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
}

// WithEngine selects the transcription engine.
func WithEngine(engine string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Transcription.Engine = engine
	}
}

// WithStubbedBinaries puts no-op executables named names (ffmpeg, ffprobe,
// yt-dlp and uvx when empty) first on PATH for the test's duration.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp", "uvx"}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
