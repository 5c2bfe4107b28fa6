package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeTranscription()
	c.normalizePriorTranscripts()
	c.normalizeAssembly()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	if c.Pipeline.MaxPasses <= 0 {
		c.Pipeline.MaxPasses = defaultMaxPasses
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Endpoint = strings.TrimSpace(c.Catalog.Endpoint)
	if c.Catalog.Endpoint == "" {
		if value, ok := os.LookupEnv("VOLSCRIBE_CATALOG_ENDPOINT"); ok {
			c.Catalog.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Catalog.Manifest = strings.TrimSpace(c.Catalog.Manifest)
	if c.Catalog.Manifest != "" {
		expanded, err := expandPath(c.Catalog.Manifest)
		if err != nil {
			return fmt.Errorf("catalog.manifest: %w", err)
		}
		c.Catalog.Manifest = expanded
	}
	c.Catalog.Library = strings.TrimSpace(c.Catalog.Library)
	if c.Catalog.PageLimit <= 0 {
		c.Catalog.PageLimit = defaultCatalogPageLimit
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeoutSeconds
	}
	if c.Catalog.MaxRetries < 0 {
		c.Catalog.MaxRetries = 0
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.Container = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Media.Container)), ".")
	if c.Media.Container == "" {
		c.Media.Container = defaultMediaContainer
	}
	c.Media.Resolver = strings.ToLower(strings.TrimSpace(c.Media.Resolver))
	if c.Media.Resolver == "" {
		c.Media.Resolver = ResolverYTDLP
	}
	c.Media.YTDLPBinary = strings.TrimSpace(c.Media.YTDLPBinary)
	if c.Media.YTDLPBinary == "" {
		c.Media.YTDLPBinary = defaultYTDLPBinary
	}
	templates := make([]string, 0, len(c.Media.MirrorTemplates))
	for _, tmpl := range c.Media.MirrorTemplates {
		if tmpl = strings.TrimSpace(tmpl); tmpl != "" {
			templates = append(templates, tmpl)
		}
	}
	c.Media.MirrorTemplates = templates
	if c.Media.RaceSampleBytes <= 0 {
		c.Media.RaceSampleBytes = defaultRaceSampleBytes
	}
	if c.Media.RaceTimeoutSeconds <= 0 {
		c.Media.RaceTimeoutSeconds = defaultRaceTimeoutSeconds
	}
	if c.Media.RequestTimeoutSeconds <= 0 {
		c.Media.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Engine = strings.ToLower(strings.TrimSpace(t.Engine))
	if t.Engine == "" {
		t.Engine = EngineWhisperX
	}
	if t.Concurrency <= 0 {
		t.Concurrency = defaultTranscriptionConcurrency
	}
	if t.ChunkDurationSeconds <= 0 {
		t.ChunkDurationSeconds = defaultChunkDurationSeconds
	}
	if t.FFmpegBinary = strings.TrimSpace(t.FFmpegBinary); t.FFmpegBinary == "" {
		t.FFmpegBinary = defaultFFmpegBinary
	}
	if t.FFprobeBinary = strings.TrimSpace(t.FFprobeBinary); t.FFprobeBinary == "" {
		t.FFprobeBinary = defaultFFprobeBinary
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	t.WhisperXModel = strings.TrimSpace(t.WhisperXModel)
	t.WhisperXVADMethod = strings.ToLower(strings.TrimSpace(t.WhisperXVADMethod))
	if t.WhisperXVADMethod == "" {
		t.WhisperXVADMethod = defaultWhisperXVADMethod
	}
	t.WhisperXHuggingFace = strings.TrimSpace(t.WhisperXHuggingFace)
	if t.WhisperXHuggingFace == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			t.WhisperXHuggingFace = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			t.WhisperXHuggingFace = strings.TrimSpace(value)
		}
	}
	if t.SpeechLanguageCode = strings.TrimSpace(t.SpeechLanguageCode); t.SpeechLanguageCode == "" {
		t.SpeechLanguageCode = defaultSpeechLanguageCode
	}
	t.SpeechModel = strings.TrimSpace(t.SpeechModel)
}

func (c *Config) normalizePriorTranscripts() {
	c.PriorTranscripts.Endpoint = strings.TrimSpace(c.PriorTranscripts.Endpoint)
	if c.PriorTranscripts.TimeoutSeconds <= 0 {
		c.PriorTranscripts.TimeoutSeconds = defaultPriorTimeoutSeconds
	}
}

func (c *Config) normalizeAssembly() {
	a := &c.Assembly
	if a.MaxSecondsPerSegment <= 0 {
		a.MaxSecondsPerSegment = defaultMaxSecondsPerSegment
	}
	if a.MinWordsPerSegment < 0 {
		a.MinWordsPerSegment = 0
	}
	if a.GapThresholdSeconds <= 0 {
		a.GapThresholdSeconds = defaultGapThresholdSeconds
	}
	a.Fillers = dedupeTrimmed(a.Fillers)
	a.Hints = dedupeTrimmed(a.Hints)
}

func (c *Config) normalizeArchive() error {
	c.Archive.Backend = strings.ToLower(strings.TrimSpace(c.Archive.Backend))
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveBackendFilesystem
	}
	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = defaultArchiveDir
	}
	var err error
	if c.Archive.Dir, err = expandPath(c.Archive.Dir); err != nil {
		return fmt.Errorf("archive.dir: %w", err)
	}
	c.Archive.AzureAccountURL = strings.TrimSpace(c.Archive.AzureAccountURL)
	if c.Archive.AzureAccountURL == "" {
		if value, ok := os.LookupEnv("AZURE_STORAGE_ACCOUNT_URL"); ok {
			c.Archive.AzureAccountURL = strings.TrimSpace(value)
		}
	}
	c.Archive.AzureContainer = strings.TrimSpace(c.Archive.AzureContainer)
	c.Archive.GCSBucket = strings.TrimSpace(c.Archive.GCSBucket)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
