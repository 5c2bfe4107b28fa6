// Package artifacts derives per-volume pipeline progress from the files that
// exist in a collection's working directory.
//
// Nothing here performs I/O except ListDir; every other function is a pure
// computation over a flat listing of file names, so an interrupted run can be
// resumed by simply listing the directory again.
package artifacts

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// TranscriptExt is the extension of a volume's transcript artifact.
const TranscriptExt = ".json"

// Volume is one numbered unit of a collection, tied to an external media id.
type Volume struct {
	ExternalID string `json:"id" yaml:"id"`
	Number     int    `json:"volume" yaml:"volume"`
}

func (v Volume) String() string {
	return fmt.Sprintf("volume %d (%s)", v.Number, v.ExternalID)
}

// Stage is the furthest artifact stage a volume has reached on disk.
type Stage int

const (
	StageNotStarted Stage = iota
	StageDownloaded
	StageTranscribed
)

func (s Stage) String() string {
	switch s {
	case StageDownloaded:
		return "downloaded"
	case StageTranscribed:
		return "transcribed"
	default:
		return "not_started"
	}
}

// ArtifactName returns "<number><ext>" for the volume.
func ArtifactName(v Volume, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strconv.Itoa(v.Number) + ext
}

// ArtifactPath joins dir with the volume's artifact name.
func ArtifactPath(dir string, v Volume, ext string) string {
	return filepath.Join(dir, ArtifactName(v, ext))
}

// TranscriptPath returns the location of the volume's transcript artifact.
func TranscriptPath(dir string, v Volume) string {
	return ArtifactPath(dir, v, TranscriptExt)
}
