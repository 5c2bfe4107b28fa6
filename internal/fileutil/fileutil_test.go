package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "1.json")

	if err := WriteFileAtomic(target, []byte(`{"volume":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"volume":1}` {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertOnlyFiles(t, dir, "1.json")
}

func TestWriteAtomicFailureLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "2.mp4")

	err := WriteAtomic(target, 0o644, func(w io.Writer) error {
		if _, err := w.Write([]byte("partial")); err != nil {
			return err
		}
		return errors.New("stream reset")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatalf("target should not exist, stat err = %v", statErr)
	}
	assertOnlyFiles(t, dir)
}

func TestAtomicFileTempIsHidden(t *testing.T) {
	dir := t.TempDir()
	f, err := CreateAtomic(filepath.Join(dir, "3.mp4"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Abort()

	if base := filepath.Base(f.TempPath()); base[0] != '.' {
		t.Fatalf("expected hidden temp file, got %q", base)
	}
	if _, err := os.Stat(filepath.Join(dir, "3.mp4")); !os.IsNotExist(err) {
		t.Fatal("target must not exist before commit")
	}
	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := f.Commit(); err == nil {
		t.Fatal("second commit should fail")
	}
	assertOnlyFiles(t, dir, "3.mp4")
}

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	in := map[string]int{"volume": 4}

	if err := WriteJSONAtomic(path, in); err != nil {
		t.Fatal(err)
	}
	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatal(err)
	}
	if out["volume"] != 4 {
		t.Fatalf("unexpected decoded value: %v", out)
	}
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory contents = %v, want %v", names, want)
	}
	for i, e := range entries {
		if e.Name() != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, e.Name(), want[i])
		}
	}
}
