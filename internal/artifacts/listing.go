package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ListDir returns the names of regular files in dir. Hidden files, which
// include in-flight temp files, are skipped. A missing directory yields an
// empty listing.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
