package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validatePriorTranscripts(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.MaxRetries > 10 {
		return errors.New("catalog.max_retries must be 10 or fewer")
	}
	return nil
}

func (c *Config) validateMedia() error {
	switch c.Media.Resolver {
	case ResolverYTDLP:
	case ResolverTemplate:
		if len(c.Media.MirrorTemplates) == 0 {
			return errors.New("media.mirror_templates must be set when media.resolver is \"template\"")
		}
	default:
		return fmt.Errorf("media.resolver: unsupported value %q (want %q or %q)", c.Media.Resolver, ResolverYTDLP, ResolverTemplate)
	}
	if c.Media.RaceSampleBytes < 1024 {
		return errors.New("media.race_sample_bytes must be at least 1024")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case EngineWhisperX:
		switch c.Transcription.WhisperXVADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.whisperx_vad_method: unsupported value %q", c.Transcription.WhisperXVADMethod)
		}
	case EngineGCPSpeech:
	default:
		return fmt.Errorf("transcription.engine: unsupported value %q (want %q or %q)", c.Transcription.Engine, EngineWhisperX, EngineGCPSpeech)
	}
	if c.Transcription.Concurrency > 32 {
		return errors.New("transcription.concurrency must be 32 or fewer")
	}
	if c.Transcription.ChunkDurationSeconds < 10 {
		return errors.New("transcription.chunk_duration_seconds must be at least 10")
	}
	return nil
}

func (c *Config) validatePriorTranscripts() error {
	if c.PriorTranscripts.Enabled && c.PriorTranscripts.Endpoint == "" {
		return errors.New("prior_transcripts.endpoint must be set when prior_transcripts.enabled is true")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if c.Assembly.MinWordsPerSegment > 1000 {
		return errors.New("assembly.min_words_per_segment must be 1000 or fewer")
	}
	if c.Assembly.GapThresholdSeconds >= c.Assembly.MaxSecondsPerSegment {
		return errors.New("assembly.gap_threshold_seconds must be smaller than assembly.max_seconds_per_segment")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Backend {
	case ArchiveBackendNone, ArchiveBackendFilesystem:
	case ArchiveBackendAzureBlob:
		if c.Archive.AzureAccountURL == "" {
			return errors.New("archive.azure_account_url must be set when archive.backend is \"azblob\" (or export AZURE_STORAGE_ACCOUNT_URL)")
		}
		if c.Archive.AzureContainer == "" {
			return errors.New("archive.azure_container must be set when archive.backend is \"azblob\"")
		}
	case ArchiveBackendGCS:
		if c.Archive.GCSBucket == "" {
			return errors.New("archive.gcs_bucket must be set when archive.backend is \"gcs\"")
		}
	default:
		return fmt.Errorf("archive.backend: unsupported value %q", c.Archive.Backend)
	}
	if c.Archive.UploadOnComplete && c.Archive.Backend == ArchiveBackendNone {
		return errors.New("archive.upload_on_complete requires an archive backend")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
