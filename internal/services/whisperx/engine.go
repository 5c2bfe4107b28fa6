package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"volscribe/internal/services"
	"volscribe/internal/transcribe"
	"volscribe/internal/transcript"
)

// Engine provides WhisperX transcription of audio chunks.
type Engine struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewEngine creates a WhisperX engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *Engine {
	e.commandRunner = runner
	return e
}

// Name implements transcribe.Engine.
func (e *Engine) Name() string {
	return "whisperx"
}

// Model returns the configured model name for logging.
func (e *Engine) Model() string {
	return e.cfg.model()
}

func (e *Engine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 2048))
	}
	return nil
}

// TranscribeChunk implements transcribe.Engine. WhisperX writes
// "<chunk>.json" next to the chunk.
func (e *Engine) TranscribeChunk(ctx context.Context, wavPath string) ([]transcript.RawEntry, error) {
	if wavPath == "" {
		return nil, fmt.Errorf("whisperx: source path required")
	}
	outputDir := filepath.Dir(wavPath)
	if err := e.run(ctx, UVXCommand, e.buildArgs(wavPath, outputDir)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "whisperx", filepath.Base(wavPath), err)
	}

	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	segments, err := LoadSegments(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "whisperx", "read output", err)
	}
	return ToEntries(segments), nil
}

// buildArgs assembles the uvx invocation for one chunk.
func (e *Engine) buildArgs(source, outputDir string) []string {
	args := []string{"--index-url", pypiIndexURL}
	if e.cfg.CUDAEnabled {
		args = []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
	}
	args = append(args, "whisperx", source, "--model", e.cfg.model(), "--output_dir", outputDir)
	args = append(args, decodingArgs...)

	vad := e.cfg.vadMethod()
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && e.cfg.HFToken != "" {
		args = append(args, "--hf_token", e.cfg.HFToken)
	}
	if lang := e.cfg.language(); lang != "" {
		args = append(args, "--language", lang)
	}
	if e.cfg.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}

// Word is a single word from WhisperX output. Start and End are absent for
// words the aligner could not place.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Score *float64 `json:"score"`
}

// Segment is a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}

// ToEntries converts WhisperX segments into token-timed entries.
func ToEntries(segments []Segment) []transcript.RawEntry {
	entries := make([]transcript.RawEntry, 0, len(segments))
	for _, seg := range segments {
		tokens := alignWords(seg)
		if len(tokens) == 0 {
			continue
		}
		transcribe.EnsurePositiveDurations(tokens)
		entries = append(entries, transcribe.EntryFromTokens(strings.TrimSpace(seg.Text), tokens))
	}
	return entries
}

// alignWords fills missing word times. A word without a start begins where
// the previous word ended (or at the segment start); a word without an end
// stops where the next timed word starts (or at the segment end).
func alignWords(seg Segment) []transcript.RawToken {
	tokens := make([]transcript.RawToken, 0, len(seg.Words))
	for i, w := range seg.Words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		tok := transcript.RawToken{Text: text, Confidence: w.Score}
		switch {
		case w.Start != nil:
			tok.Start = *w.Start
		case len(tokens) > 0:
			tok.Start = tokens[len(tokens)-1].End
		default:
			tok.Start = seg.Start
		}
		if w.End != nil {
			tok.End = *w.End
		} else {
			tok.End = nextStart(seg, i+1)
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func nextStart(seg Segment, from int) float64 {
	for _, w := range seg.Words[from:] {
		if w.Start != nil {
			return *w.Start
		}
	}
	return seg.End
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
