package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"investlens/internal/config"
)

func decodeLastLine(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "nested", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger != GetLogger() {
		t.Error("GetLogger should return the initialized logger")
	}

	logger.Info("dataset loaded", "records", 42)
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	entry := decodeLastLine(t, content)
	if entry["msg"] != "dataset loaded" {
		t.Errorf("Expected msg='dataset loaded', got %v", entry["msg"])
	}
	if entry["records"] != float64(42) {
		t.Errorf("Expected records=42, got %v", entry["records"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", entry["level"])
	}
	if _, ok := entry["source"]; !ok {
		t.Error("Expected source attribute")
	}
}

func TestInitializeLoggerReplacesPrevious(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	dir := t.TempDir()
	first, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(dir, "a.log")})
	if err != nil {
		t.Fatalf("first init: %v", err)
	}
	second, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(dir, "b.log")})
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if first == second {
		t.Error("expected a new logger instance")
	}
	if GetLogger() != second {
		t.Error("GetLogger should return the latest logger")
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := decodeLastLine(t, buf.Bytes())
	if entry["trace_id"] != "test-trace-123" {
		t.Errorf("Expected trace_id='test-trace-123', got %v", entry["trace_id"])
	}

	buf.Reset()
	logger.Info("no context")
	entry = decodeLastLine(t, buf.Bytes())
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id should be absent without a context value")
	}
}

func TestTraceHandlerKeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "info").With("component", "dataset").WithGroup("load")

	ctx := WithTraceID(context.Background(), "abc")
	logger.InfoContext(ctx, "loaded", "rows", 3)

	entry := decodeLastLine(t, buf.Bytes())
	if entry["component"] != "dataset" {
		t.Errorf("Expected component='dataset', got %v", entry["component"])
	}
	group, ok := entry["load"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected load group, got %v", entry["load"])
	}
	if group["rows"] != float64(3) {
		t.Errorf("Expected rows=3, got %v", group["rows"])
	}
	if group["trace_id"] != "abc" {
		t.Errorf("Expected trace_id inside group, got %v", group["trace_id"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %s", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warn output")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	if id == "" {
		t.Fatal("EnsureTraceID should add a trace ID")
	}
	if again := GetTraceID(EnsureTraceID(ctx)); again != id {
		t.Errorf("EnsureTraceID replaced existing ID %s with %s", id, again)
	}
	if GenerateTraceID() == GenerateTraceID() {
		t.Error("GenerateTraceID should be unique")
	}
	if GetTraceID(context.Background()) != "" {
		t.Error("empty context should have no trace ID")
	}
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := NewJSONLogger(&buf, "info")

	WithError(WithComponent(base, "exporter"), errors.New("disk full")).Error("export failed")
	entry := decodeLastLine(t, buf.Bytes())
	if entry["component"] != "exporter" {
		t.Errorf("Expected component='exporter', got %v", entry["component"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("Expected error='disk full', got %v", entry["error"])
	}

	if WithError(base, nil) != base {
		t.Error("WithError(nil) should return the same logger")
	}
}
