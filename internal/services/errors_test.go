package services_test

import (
	"errors"
	"strings"
	"testing"

	"volscribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribing", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribing", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "normalize", "", "invalid", nil)
	if services.IsRetryable(validationErr) {
		t.Fatal("expected validation error to be terminal")
	}

	transientErr := services.Wrap(services.ErrTransient, "downloading", "copy", "copy failed", errors.New("io"))
	if !services.IsRetryable(transientErr) {
		t.Fatal("expected transient error to be retryable")
	}

	if services.IsRetryable(nil) {
		t.Fatal("nil error is not retryable")
	}
}

func TestClassify(t *testing.T) {
	cases := map[error]string{
		services.Wrap(services.ErrNotFound, "", "", "", nil):      "not_found",
		services.Wrap(services.ErrTimeout, "", "", "", nil):       "timeout",
		services.Wrap(services.ErrExternalTool, "", "", "", nil):  "external_tool",
		services.Wrap(services.ErrConfiguration, "", "", "", nil): "configuration",
		errors.New("plain"): "transient",
	}
	for err, want := range cases {
		if got := services.Classify(err); got != want {
			t.Fatalf("Classify(%v) = %q, want %q", err, got, want)
		}
	}
}
