package config

const (
	defaultConfigPath               = "~/.config/volscribe/config.toml"
	defaultWorkDir                  = "~/.local/share/volscribe/work"
	defaultLogDir                   = "~/.local/share/volscribe/logs"
	defaultStateDir                 = "~/.local/share/volscribe/state"
	defaultArchiveDir               = "~/.local/share/volscribe/archive"
	defaultCatalogLibrary           = "62"
	defaultCatalogPageLimit         = 10
	defaultCatalogTimeoutSeconds    = 30
	defaultCatalogMaxRetries        = 3
	defaultMediaContainer           = "mp4"
	defaultYTDLPBinary              = "yt-dlp"
	defaultRaceSampleBytes          = 256 * 1024
	defaultRaceTimeoutSeconds       = 20
	defaultRequestTimeoutSeconds    = 60
	defaultTranscriptionConcurrency = 5
	defaultChunkDurationSeconds     = 300
	defaultFFmpegBinary             = "ffmpeg"
	defaultFFprobeBinary            = "ffprobe"
	defaultLanguage                 = "ar"
	defaultSpeechLanguageCode       = "ar-SA"
	defaultWhisperXVADMethod        = "silero"
	defaultPriorTimeoutSeconds      = 30
	defaultMaxSecondsPerSegment     = 240
	defaultMinWordsPerSegment       = 10
	defaultGapThresholdSeconds      = 2
	defaultMaxPasses                = 3
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Catalog resolvers.
const (
	ResolverYTDLP    = "ytdlp"
	ResolverTemplate = "template"
)

// Transcription engines.
const (
	EngineWhisperX  = "whisperx"
	EngineGCPSpeech = "gcp_speech"
)

// Archive store backends.
const (
	ArchiveBackendNone       = "none"
	ArchiveBackendFilesystem = "filesystem"
	ArchiveBackendAzureBlob  = "azblob"
	ArchiveBackendGCS        = "gcs"
)

var defaultFillerStems = []string{"آآ", "اه", "ايه", "وآآ", "فآآ", "مم", "ها"}

var defaultHints = []string{
	"احسن الله اليكم",
	"جزاك الله",
	"احسن الله اليك",
	"بسم الله الرحمن",
	"وصلى الله وسلم على نبينا محمد",
	"اما بعد",
}

// DefaultFillers returns the disfluency tokens removed during normalization.
// Each stem is listed bare and with trailing "." and "?" since matching is exact.
func DefaultFillers() []string {
	out := make([]string, 0, len(defaultFillerStems)*3)
	for _, stem := range defaultFillerStems {
		out = append(out, stem, stem+".", stem+"?")
	}
	return out
}

// DefaultHints returns the phrases that mark natural utterance starts.
func DefaultHints() []string {
	return append([]string(nil), defaultHints...)
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Catalog: Catalog{
			Library:        defaultCatalogLibrary,
			PageLimit:      defaultCatalogPageLimit,
			TimeoutSeconds: defaultCatalogTimeoutSeconds,
			MaxRetries:     defaultCatalogMaxRetries,
		},
		Media: Media{
			Container:             defaultMediaContainer,
			Resolver:              ResolverYTDLP,
			YTDLPBinary:           defaultYTDLPBinary,
			RaceSampleBytes:       defaultRaceSampleBytes,
			RaceTimeoutSeconds:    defaultRaceTimeoutSeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Transcription: Transcription{
			Engine:               EngineWhisperX,
			Concurrency:          defaultTranscriptionConcurrency,
			ChunkDurationSeconds: defaultChunkDurationSeconds,
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			Language:             defaultLanguage,
			WhisperXVADMethod:    defaultWhisperXVADMethod,
			SpeechLanguageCode:   defaultSpeechLanguageCode,
		},
		PriorTranscripts: PriorTranscripts{
			TimeoutSeconds: defaultPriorTimeoutSeconds,
		},
		Assembly: Assembly{
			MaxSecondsPerSegment: defaultMaxSecondsPerSegment,
			MinWordsPerSegment:   defaultMinWordsPerSegment,
			GapThresholdSeconds:  defaultGapThresholdSeconds,
			Fillers:              DefaultFillers(),
			Hints:                DefaultHints(),
		},
		Archive: Archive{
			Backend: ArchiveBackendFilesystem,
			Dir:     defaultArchiveDir,
		},
		Pipeline: Pipeline{
			MaxPasses: defaultMaxPasses,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
