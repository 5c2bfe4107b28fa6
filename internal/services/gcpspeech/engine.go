// Package gcpspeech transcribes audio chunks with Google Cloud Speech-to-Text.
package gcpspeech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/dustin/go-humanize"
	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"volscribe/internal/gcpauth"
	"volscribe/internal/logging"
	"volscribe/internal/services"
	"volscribe/internal/transcribe"
	"volscribe/internal/transcript"
)

// MaxInlineBytes is the largest payload the API accepts as inline content.
const MaxInlineBytes = 10 * 1024 * 1024

const (
	defaultLanguageCode = "ar-SA"
	sampleRateHertz     = 16000
	defaultMaxRetries   = 4
)

// Recognizer runs a long-running recognition to completion.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)
	Close() error
}

// Config captures recognition settings.
type Config struct {
	LanguageCode string
	// Model is optional; empty uses the API default.
	Model string
}

// Engine implements transcribe.Engine on top of a Recognizer.
type Engine struct {
	cfg        Config
	recognizer Recognizer
	logger     *slog.Logger
	maxRetries uint64
	backoff    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecognizer replaces the API client (for testing).
func WithRecognizer(r Recognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRetry overrides the retry budget for transient API failures.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(e *Engine) {
		if maxRetries >= 0 {
			e.maxRetries = uint64(maxRetries)
		}
		if backoff > 0 {
			e.backoff = backoff
		}
	}
}

// New creates an engine. Without WithRecognizer it dials the Speech API
// using gcpauth.ClientOptionsFromEnv.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = defaultLanguageCode
	}
	e := &Engine{
		cfg:        cfg,
		logger:     logging.NewNop(),
		maxRetries: defaultMaxRetries,
		backoff:    750 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recognizer == nil {
		client, err := speech.NewClient(ctx, gcpauth.ClientOptionsFromEnv()...)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transcription", "speech client", "create Speech-to-Text client", err)
		}
		e.recognizer = &apiRecognizer{client: client}
	}
	e.logger = logging.NewComponentLogger(e.logger, "gcp-speech")
	return e, nil
}

// Close releases the API client.
func (e *Engine) Close() error {
	if e == nil || e.recognizer == nil {
		return nil
	}
	return e.recognizer.Close()
}

// Name implements transcribe.Engine.
func (e *Engine) Name() string {
	return "gcp_speech"
}

// TranscribeChunk implements transcribe.Engine. The chunk must be 16 kHz
// mono LINEAR16 WAV as produced by the chunk extractor.
func (e *Engine) TranscribeChunk(ctx context.Context, wavPath string) ([]transcript.RawEntry, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("gcp speech: read chunk: %w", err)
	}
	if len(audio) > MaxInlineBytes {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "gcp speech",
			fmt.Sprintf("chunk is %s, above the %s inline limit; lower transcription.chunk_duration_seconds",
				humanize.IBytes(uint64(len(audio))), humanize.IBytes(MaxInlineBytes)), nil)
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            sampleRateHertz,
			LanguageCode:               e.cfg.LanguageCode,
			Model:                      e.cfg.Model,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			EnableWordConfidence:       true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	var resp *speechpb.LongRunningRecognizeResponse
	backoff := retry.WithMaxRetries(e.maxRetries, retry.WithCappedDuration(10*time.Second, retry.NewExponential(e.backoff)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := e.recognizer.Recognize(ctx, req)
		if err != nil {
			if isTransient(err) {
				logging.WarnWithContext(logging.WithContext(ctx, e.logger), "speech request failed; retrying", "speech_retry",
					logging.String("chunk", wavPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "transient API error; will retry"),
					logging.String(logging.FieldImpact, "chunk transcription delayed"),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		marker := services.ErrExternalTool
		if isTransient(err) {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "transcription", "gcp speech", "long-running recognize", err)
	}
	return ToEntries(resp), nil
}

// isTransient reports gRPC codes worth retrying. status.Code unwraps.
func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// ToEntries maps recognition results to token-timed entries. Each result's
// top alternative becomes one entry; results without word offsets are dropped.
func ToEntries(resp *speechpb.LongRunningRecognizeResponse) []transcript.RawEntry {
	if resp == nil {
		return nil
	}
	entries := make([]transcript.RawEntry, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result == nil || len(result.Alternatives) == 0 || result.Alternatives[0] == nil {
			continue
		}
		alt := result.Alternatives[0]
		tokens := make([]transcript.RawToken, 0, len(alt.Words))
		for _, w := range alt.Words {
			text := strings.TrimSpace(w.GetWord())
			if text == "" {
				continue
			}
			tok := transcript.RawToken{
				Start: seconds(w.GetStartTime()),
				End:   seconds(w.GetEndTime()),
				Text:  text,
			}
			if c := w.GetConfidence(); c > 0 {
				conf := float64(c)
				tok.Confidence = &conf
			}
			tokens = append(tokens, tok)
		}
		if len(tokens) == 0 {
			continue
		}
		transcribe.EnsurePositiveDurations(tokens)
		entries = append(entries, transcribe.EntryFromTokens(strings.TrimSpace(alt.GetTranscript()), tokens))
	}
	return entries
}

func seconds(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return d.AsDuration().Seconds()
}

type apiRecognizer struct {
	client *speech.Client
}

func (r *apiRecognizer) Recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	op, err := r.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

func (r *apiRecognizer) Close() error {
	return r.client.Close()
}
