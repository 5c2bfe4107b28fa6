package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCollectionLocked is returned when another process holds the collection lock.
var ErrCollectionLocked = errors.New("collection is locked by another run")

// IntegrationGap reports volumes left out of the archive. It is a warning:
// the archive is still written with the volumes that are present.
type IntegrationGap struct {
	CollectionID string
	Volumes      []int
}

func (g *IntegrationGap) Error() string {
	parts := make([]string, len(g.Volumes))
	for i, n := range g.Volumes {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("collection %s: %d volume(s) missing from archive: %s",
		g.CollectionID, len(g.Volumes), strings.Join(parts, ", "))
}

// VolumeFailure is a per-volume error caught at the orchestrator boundary.
type VolumeFailure struct {
	Volume int
	Stage  string
	Err    error
}

func (f VolumeFailure) Error() string {
	return fmt.Sprintf("volume %d: %s: %v", f.Volume, f.Stage, f.Err)
}

func (f VolumeFailure) Unwrap() error {
	return f.Err
}
