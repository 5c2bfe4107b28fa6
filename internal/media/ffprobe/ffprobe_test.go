package ffprobe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDurationPrefersContainer(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "100.5"}},
		Format:  Format{Duration: "123.45"},
	}
	got, err := result.Duration()
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 123.45 {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "N/A"},
			{CodecType: "audio", Duration: "3600.2"},
		},
		Format: Format{Duration: "bad"},
	}
	got, err := result.Duration()
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 3600.2 {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestDurationUnavailable(t *testing.T) {
	if _, err := (Result{Format: Format{Filename: "1.mp4"}}).Duration(); err == nil {
		t.Fatal("expected error for missing duration")
	}
}

func TestAudioStream(t *testing.T) {
	result := Result{Streams: []Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio", CodecName: "aac"},
		{Index: 2, CodecType: "audio", CodecName: "opus"},
	}}
	stream, pos, err := result.AudioStream()
	if err != nil {
		t.Fatalf("AudioStream returned error: %v", err)
	}
	if stream.CodecName != "aac" || pos != 0 {
		t.Fatalf("unexpected stream %+v at %d", stream, pos)
	}

	if _, _, err := (Result{Streams: []Stream{{CodecType: "video"}}}).AudioStream(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestInspectWithRunner(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"filename":"1.mp4","duration":"60.0","size":"2048"}}`), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/work/1.mp4")
	if err != nil {
		t.Fatalf("InspectWith returned error: %v", err)
	}
	if result.SizeBytes() != 2048 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if gotArgs[len(gotArgs)-1] != "/work/1.mp4" || !strings.Contains(strings.Join(gotArgs, " "), "-show_format") {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestInspectWithErrors(t *testing.T) {
	if _, err := InspectWith(context.Background(), nil, "", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	bad := func(context.Context, string, ...string) ([]byte, error) { return []byte("not json"), nil }
	if _, err := InspectWith(context.Background(), bad, "", "x"); err == nil {
		t.Fatal("expected parse error")
	}
}
