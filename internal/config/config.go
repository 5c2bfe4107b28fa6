package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Catalog contains configuration for the collection catalog.
type Catalog struct {
	// Endpoint is the collections API URL. Takes precedence over Manifest.
	Endpoint string `toml:"endpoint"`
	// Manifest is a local YAML or JSON file describing collections and volumes.
	Manifest       string `toml:"manifest"`
	Library        string `toml:"library"`
	PageLimit      int    `toml:"page_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// Media contains configuration for candidate URL resolution and downloads.
type Media struct {
	Container             string   `toml:"container"`
	Resolver              string   `toml:"resolver"`
	YTDLPBinary           string   `toml:"ytdlp_binary"`
	MirrorTemplates       []string `toml:"mirror_templates"`
	RaceSampleBytes       int64    `toml:"race_sample_bytes"`
	RaceTimeoutSeconds    int      `toml:"race_timeout_seconds"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
}

// Transcription contains configuration for the speech recognition engines.
type Transcription struct {
	// Engine selects the backend ("whisperx" or "gcp_speech").
	Engine               string `toml:"engine"`
	Concurrency          int    `toml:"concurrency"`
	ChunkDurationSeconds int    `toml:"chunk_duration_seconds"`
	FFmpegBinary         string `toml:"ffmpeg_binary"`
	FFprobeBinary        string `toml:"ffprobe_binary"`
	Language             string `toml:"language"`

	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
	WhisperXVADMethod   string `toml:"whisperx_vad_method"`
	WhisperXHuggingFace string `toml:"whisperx_hf_token"`

	SpeechLanguageCode string `toml:"speech_language_code"`
	SpeechModel        string `toml:"speech_model"`
}

// PriorTranscripts contains configuration for the prior-transcription index.
type PriorTranscripts struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Assembly contains the segment assembly tuning.
type Assembly struct {
	MaxSecondsPerSegment float64  `toml:"max_seconds_per_segment"`
	MinWordsPerSegment   int      `toml:"min_words_per_segment"`
	GapThresholdSeconds  float64  `toml:"gap_threshold_seconds"`
	Fillers              []string `toml:"fillers"`
	Hints                []string `toml:"hints"`
}

// Archive contains configuration for the archive object store.
type Archive struct {
	// Backend selects the store ("filesystem", "azblob", "gcs" or "none").
	Backend          string `toml:"backend"`
	Dir              string `toml:"dir"`
	AzureAccountURL  string `toml:"azure_account_url"`
	AzureContainer   string `toml:"azure_container"`
	GCSBucket        string `toml:"gcs_bucket"`
	UploadOnComplete bool   `toml:"upload_on_complete"`
}

// Pipeline contains orchestrator settings.
type Pipeline struct {
	MaxPasses int `toml:"max_passes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for volscribe.
//
// Configuration sections by subsystem:
//   - Paths: work, log and state directories
//   - Catalog: collections API or local manifest
//   - Media: candidate URL resolution and mirror racing
//   - Transcription: speech engine selection and chunking
//   - PriorTranscripts: lookup of transcripts produced elsewhere
//   - Assembly: segment grouping thresholds, fillers and hints
//   - Archive: object store backend for the aggregated archive
//   - Pipeline: orchestrator pass limits
//   - Logging: log format and level
type Config struct {
	Paths            Paths            `toml:"paths"`
	Catalog          Catalog          `toml:"catalog"`
	Media            Media            `toml:"media"`
	Transcription    Transcription    `toml:"transcription"`
	PriorTranscripts PriorTranscripts `toml:"prior_transcripts"`
	Assembly         Assembly         `toml:"assembly"`
	Archive          Archive          `toml:"archive"`
	Pipeline         Pipeline         `toml:"pipeline"`
	Logging          Logging          `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("volscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Archive.Backend == ArchiveBackendFilesystem && strings.TrimSpace(c.Archive.Dir) != "" {
		if err := os.MkdirAll(c.Archive.Dir, 0o755); err != nil {
			return fmt.Errorf("create archive directory %q: %w", c.Archive.Dir, err)
		}
	}
	return nil
}

// CollectionDir returns the working directory holding a collection's artifacts.
func (c *Config) CollectionDir(collectionID string) string {
	return filepath.Join(c.Paths.WorkDir, collectionID)
}

// ArchivePath returns the local path of a collection's aggregated archive.
func (c *Config) ArchivePath(collectionID string) string {
	return filepath.Join(c.Paths.WorkDir, collectionID+".json")
}

// RunLogPath returns the SQLite run ledger location.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// CatalogTimeout returns the per-request timeout for catalog calls.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// RaceTimeout returns the per-probe timeout for mirror racing.
func (c *Config) RaceTimeout() time.Duration {
	return time.Duration(c.Media.RaceTimeoutSeconds) * time.Second
}

// RequestTimeout returns the header timeout applied to media downloads.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Media.RequestTimeoutSeconds) * time.Second
}

// PriorLookupTimeout returns the per-request timeout for the prior-transcription index.
func (c *Config) PriorLookupTimeout() time.Duration {
	return time.Duration(c.PriorTranscripts.TimeoutSeconds) * time.Second
}

// DownloadExtensions lists the media extensions that mark a volume as downloaded,
// in preference order.
func (c *Config) DownloadExtensions() []string {
	return []string{".wav", ".mp3", "." + c.Media.Container}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
