package whisperx

import "strings"

// Config selects how WhisperX is invoked for each chunk.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is VADMethodSilero (default) or VADMethodPyannote; the
	// latter needs HFToken.
	VADMethod string
	HFToken   string
	// Language is an ISO 639-1 code. Anything else lets WhisperX detect it.
	Language string
}

const (
	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	// UVXCommand launches WhisperX in an ephemeral environment.
	UVXCommand = "uvx"
)

const (
	pypiIndexURL = "https://pypi.org/simple"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
)

// decodingArgs pin WhisperX's decoder and VAD tuning. Sentence resolution
// keeps each output segment aligned with one spoken sentence.
var decodingArgs = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "10",
	"--best_of", "10",
	"--temperature", "0.0",
	"--patience", "1.0",
}

func (c Config) model() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return DefaultModel
}

func (c Config) vadMethod() string {
	if c.VADMethod == VADMethodPyannote {
		return VADMethodPyannote
	}
	return VADMethodSilero
}

func (c Config) language() string {
	lang := strings.ToLower(strings.TrimSpace(c.Language))
	if len(lang) != 2 {
		return ""
	}
	return lang
}
