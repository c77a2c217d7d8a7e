package hammock

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger receives debug output. keysAndValues alternate between string keys
// and arbitrary values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DebugConfig selects which parts of the request lifecycle are logged.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogCache     bool
	LogAuth      bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns a disabled config that logs everything once
// enabled.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogCache:     true,
		LogAuth:      true,
		RequestIDGen: uuid.NewString,
	}
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts l to Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// NewSimpleLogger writes text records at debug level and above to stderr.
func NewSimpleLogger() Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &slogLogger{l: slog.New(h).With("component", "hammock")}
}

func (s *slogLogger) Debug(msg string, keysAndValues ...any) {
	s.l.Log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (s *slogLogger) Info(msg string, keysAndValues ...any) {
	s.l.Log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (s *slogLogger) Warn(msg string, keysAndValues ...any) {
	s.l.Log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

func (s *slogLogger) Error(msg string, keysAndValues ...any) {
	s.l.Log(context.Background(), slog.LevelError, msg, keysAndValues...)
}
