package mediasource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"volscribe/internal/artifacts"
	"volscribe/internal/logging"
	"volscribe/internal/services"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// CommandRunner executes name with args and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YTDLP asks yt-dlp for a video's formats and keeps progressive (non-HLS,
// non-DASH) formats in the download container that carry audio.
type YTDLP struct {
	binary    string
	container string
	run       CommandRunner
	logger    *slog.Logger
}

// YTDLPOption customizes the resolver.
type YTDLPOption func(*YTDLP)

// WithCommandRunner replaces command execution (for testing).
func WithCommandRunner(run CommandRunner) YTDLPOption {
	return func(y *YTDLP) {
		if run != nil {
			y.run = run
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) YTDLPOption {
	return func(y *YTDLP) {
		y.logger = logger
	}
}

// NewYTDLP constructs the resolver.
func NewYTDLP(binary, container string, opts ...YTDLPOption) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	if container == "" {
		container = "mp4"
	}
	y := &YTDLP{binary: binary, container: container, run: runCommand}
	for _, opt := range opts {
		opt(y)
	}
	y.logger = logging.NewComponentLogger(y.logger, "mediasource")
	return y
}

type ytdlpInfo struct {
	ID      string        `json:"id"`
	Formats []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID string `json:"format_id"`
	URL      string `json:"url"`
	Ext      string `json:"ext"`
	ACodec   string `json:"acodec"`
	VCodec   string `json:"vcodec"`
	Protocol string `json:"protocol"`
}

func (f ytdlpFormat) hasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

func (f ytdlpFormat) isStreamingManifest() bool {
	p := strings.ToLower(f.Protocol)
	return strings.Contains(p, "m3u8") || strings.Contains(p, "dash") || strings.HasPrefix(p, "f4m")
}

// ResolveCandidateURLs implements Resolver.
func (y *YTDLP) ResolveCandidateURLs(ctx context.Context, v artifacts.Volume) ([]string, error) {
	target := v.ExternalID
	if !strings.Contains(target, "://") {
		target = watchURLPrefix + target
	}
	out, err := y.run(ctx, y.binary, "-J", "--no-warnings", "--no-playlist", target)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "download", "resolve media", v.String(), err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "download", "parse yt-dlp output", v.String(), err)
	}

	urls := make([]string, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.URL == "" || !strings.EqualFold(f.Ext, y.container) || !f.hasAudio() || f.isStreamingManifest() {
			continue
		}
		urls = append(urls, f.URL)
	}
	if len(urls) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "download", "resolve media",
			fmt.Sprintf("no suitable %s format with audio for %s", y.container, v.String()), nil)
	}
	y.logger.Debug("media candidates resolved",
		logging.Int(logging.FieldVolume, v.Number),
		logging.Int("candidates", len(urls)),
	)
	return urls, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
