package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAudio is returned by AudioStream when the media has no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// Runner executes ffprobe and returns its output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect runs ffprobe against path.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	return InspectWith(ctx, execRunner, binary, path)
}

// InspectWith is Inspect with an injectable runner.
func InspectWith(ctx context.Context, run Runner, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := run(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// AudioStream returns the first audio stream and its position among audio
// streams (always 0), the index ffmpeg's "0:a:N" selector expects.
func (r Result) AudioStream() (Stream, int, error) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return s, 0, nil
		}
	}
	return Stream{}, -1, ErrNoAudio
}

// Duration returns the media length in seconds. The container duration is
// preferred; when it is missing the longest stream duration is used.
func (r Result) Duration() (float64, error) {
	if d, ok := parseSeconds(r.Format.Duration); ok {
		return d, nil
	}
	longest := 0.0
	for _, s := range r.Streams {
		if d, ok := parseSeconds(s.Duration); ok && d > longest {
			longest = d
		}
	}
	if longest > 0 {
		return longest, nil
	}
	return 0, fmt.Errorf("ffprobe: duration unavailable for %q", r.Format.Filename)
}

// SizeBytes returns the reported container size, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size, ok := parseSeconds(r.Format.Size)
	if !ok {
		return 0
	}
	return int64(size)
}

func parseSeconds(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
