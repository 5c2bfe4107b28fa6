package gcpspeech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"volscribe/internal/services"
)

type fakeRecognizer struct {
	errs  []error
	resp  *speechpb.LongRunningRecognizeResponse
	calls int
	last  *speechpb.LongRunningRecognizeRequest
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	f.calls++
	f.last = req
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.resp, nil
}

func (f *fakeRecognizer) Close() error { return nil }

func word(text string, start, end time.Duration) *speechpb.WordInfo {
	return &speechpb.WordInfo{Word: text, StartTime: durationpb.New(start), EndTime: durationpb.New(end), Confidence: 0.9}
}

func writeChunk(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk-0000.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func response() *speechpb.LongRunningRecognizeResponse {
	return &speechpb.LongRunningRecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{
			Transcript: "الحمد لله",
			Words: []*speechpb.WordInfo{
				word("الحمد", 0, 500*time.Millisecond),
				word("لله", 500*time.Millisecond, 500*time.Millisecond),
			},
		}}},
		{Alternatives: nil},
	}}
}

func TestTranscribeChunkBuildsRequestAndMapsWords(t *testing.T) {
	rec := &fakeRecognizer{resp: response()}
	engine, err := New(context.Background(), Config{Model: "latest_long"}, WithRecognizer(rec))
	require.NoError(t, err)

	entries, err := engine.TranscribeChunk(context.Background(), writeChunk(t, 64))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	cfg := rec.last.GetConfig()
	assert.Equal(t, "ar-SA", cfg.GetLanguageCode())
	assert.Equal(t, "latest_long", cfg.GetModel())
	assert.EqualValues(t, 16000, cfg.GetSampleRateHertz())
	assert.True(t, cfg.GetEnableWordTimeOffsets())
	assert.Len(t, rec.last.GetAudio().GetContent(), 64)

	tokens := entries[0].Tokens
	require.Len(t, tokens, 2)
	assert.Equal(t, "الحمد لله", entries[0].Text)
	assert.Greater(t, tokens[1].End, tokens[1].Start, "zero-length word must be repaired")
	require.NotNil(t, tokens[0].Confidence)
}

func TestTranscribeChunkRetriesUnavailable(t *testing.T) {
	rec := &fakeRecognizer{
		errs: []error{status.Error(codes.Unavailable, "try later"), status.Error(codes.ResourceExhausted, "quota")},
		resp: response(),
	}
	engine, err := New(context.Background(), Config{}, WithRecognizer(rec), WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	_, err = engine.TranscribeChunk(context.Background(), writeChunk(t, 8))
	require.NoError(t, err)
	assert.Equal(t, 3, rec.calls)
}

func TestTranscribeChunkPermanentFailureNotRetried(t *testing.T) {
	rec := &fakeRecognizer{errs: []error{status.Error(codes.InvalidArgument, "bad audio")}}
	engine, err := New(context.Background(), Config{}, WithRecognizer(rec), WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	_, err = engine.TranscribeChunk(context.Background(), writeChunk(t, 8))
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrExternalTool))
	assert.Equal(t, 1, rec.calls)
}

func TestTranscribeChunkRejectsOversizedAudio(t *testing.T) {
	rec := &fakeRecognizer{resp: response()}
	engine, err := New(context.Background(), Config{}, WithRecognizer(rec))
	require.NoError(t, err)

	_, err = engine.TranscribeChunk(context.Background(), writeChunk(t, MaxInlineBytes+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
	assert.Zero(t, rec.calls)
}
