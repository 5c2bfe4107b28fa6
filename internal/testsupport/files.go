package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteMediaFile creates a placeholder media file of size bytes (at least
// one), creating parent directories as needed.
func WriteMediaFile(t testing.TB, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, max(size, 1)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
