// Package deps reports which external binaries the configured pipeline
// needs and whether they resolve on PATH.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"volscribe/internal/config"
	"volscribe/internal/services/whisperx"
)

// Requirement is an external binary volscribe shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement after PATH lookup. Path is the resolved binary
// when Available; Detail explains why it is not.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Requirements lists the binaries the configured pipeline invokes. FFmpeg and
// FFprobe are always needed; the rest follow the resolver and engine choice.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Transcription.FFmpegBinary, Description: "Extracts 16 kHz mono audio chunks"},
		{Name: "FFprobe", Command: cfg.Transcription.FFprobeBinary, Description: "Probes media duration and audio streams"},
	}
	if cfg.Media.Resolver == config.ResolverYTDLP {
		reqs = append(reqs, Requirement{Name: "yt-dlp", Command: cfg.Media.YTDLPBinary, Description: "Resolves candidate media URLs"})
	}
	if cfg.Transcription.Engine == config.EngineWhisperX {
		reqs = append(reqs, Requirement{Name: "uvx", Command: whisperx.UVXCommand, Description: "Runs WhisperX in an ephemeral environment"})
	}
	return reqs
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		results[i] = lookup(req)
	}
	return results
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
