package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"investlens/internal/config"
)

var (
	loggerMu sync.Mutex
	// appLogger is the process-wide logger; nil until InitializeLogger runs
	appLogger *slog.Logger
	// logFile is closed on shutdown
	logFile *os.File
)

type contextKey string

const (
	// TraceIDContextKey stores the per-request trace ID
	TraceIDContextKey contextKey = "trace_id"
)

// InitializeLogger builds the application logger from cfg and installs it as
// the slog default. Calling it again replaces the previous logger and closes
// its log file.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	logger, file, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	appLogger = logger
	logFile = file
	slog.SetDefault(logger)
	return logger, nil
}

// NewLogger creates a JSON logger without touching global state. The returned
// file is nil unless cfg.Output writes to disk; the caller owns closing it.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, *os.File, error) {
	var (
		out  io.Writer = os.Stdout
		file *os.File
		err  error
	)

	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		file, err = openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if strings.EqualFold(cfg.Output, "both") {
			out = io.MultiWriter(os.Stdout, file)
		} else {
			out = file
		}
	}

	return NewJSONLogger(out, cfg.Level), file, nil
}

// NewJSONLogger returns a trace-aware JSON logger writing to w
func NewJSONLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLogLevel(level),
	})
	return slog.New(&traceHandler{Handler: handler})
}

// GetLogger returns the application logger, or slog.Default before
// initialization.
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if appLogger == nil {
		return slog.Default()
	}
	return appLogger
}

// traceHandler copies the trace ID from the record's context onto the record
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLogLevel converts a configured level name to slog.Level. Unknown
// names map to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return traceID
	}
	return TraceIDFromContext(ctx)
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting drops the global logger. Tests only.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	loggerMu.Lock()
	appLogger = nil
	loggerMu.Unlock()
}

func openLogFile(filePath string) (*os.File, error) {
	if filePath == "" {
		filePath = filepath.Join("logs", "app.log")
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return file, nil
}
