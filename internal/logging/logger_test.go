package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"volscribe/internal/config"
	"volscribe/internal/logging"
	"volscribe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "volscribe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithVolume(services.WithCollectionID(context.Background(), "1432"), 3)
	component := logging.NewComponentLogger(logger, "pipeline")
	logging.WithContext(ctx, component).Info("volume transcribed", logging.Int("segments", 12))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline [1432/v3]: volume transcribed") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "segments=12") {
		t.Fatalf("expected attribute in console line: %q", line)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	ctx = services.WithCollectionID(ctx, "77")
	ctx = services.WithVolume(ctx, 2)
	ctx = services.WithStage(ctx, "downloading")
	ctx = services.WithRunID(ctx, "run-xyz")

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if record[logging.FieldCollectionID] != "77" {
		t.Fatalf("collection_id = %v", record[logging.FieldCollectionID])
	}
	if record[logging.FieldVolume] != float64(2) {
		t.Fatalf("volume = %v", record[logging.FieldVolume])
	}
	if record[logging.FieldStage] != "downloading" {
		t.Fatalf("stage = %v", record[logging.FieldStage])
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("run_id = %v", record[logging.FieldRunID])
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v", record["level"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "volumes left", "integration_gap", logging.String(logging.FieldImpact, "archive incomplete"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldEventType] != "integration_gap" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldImpact] != "archive incomplete" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should not be enabled")
	}
}
