// Package logger provides the structured logging interface used across the
// coherence engine. The default implementation is backed by log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// LogLevel is the minimum level a logger emits.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLevel maps a configuration string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn:
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Field is a single structured key/value pair.
type Field = slog.Attr

// Logger is the logging contract components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Options tunes the slog-backed logger.
type Options struct {
	// JSON switches the handler from text to JSON output.
	JSON bool
	// Component is attached to every record when non-empty.
	Component string
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing to w at the given minimum level.
// opts may be nil.
func NewSlogLogger(w io.Writer, level LogLevel, opts *Options) Logger {
	handlerOpts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if opts != nil && opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	l := slog.New(handler)
	if opts != nil && opts.Component != "" {
		l = l.With(slog.String("component", opts.Component))
	}
	return &slogLogger{l: l}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, nil)
}

func (s *slogLogger) log(level slog.Level, msg string, fields []Field) {
	s.l.LogAttrs(context.Background(), level, msg, fields...)
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.log(slog.LevelInfo, msg, fields) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.log(slog.LevelWarn, msg, fields) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields) }

func (s *slogLogger) With(fields ...Field) Logger {
	args := make([]any, len(fields))
	for i := range fields {
		args[i] = fields[i]
	}
	return &slogLogger{l: s.l.With(args...)}
}

func String(key, value string) Field { return slog.String(key, value) }

func Int(key string, value int) Field { return slog.Int(key, value) }

func Int64(key string, value int64) Field { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Field { return slog.Uint64(key, value) }

func Float64(key string, value float64) Field { return slog.Float64(key, value) }

func Bool(key string, value bool) Field { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Field { return slog.Duration(key, value) }

func Strings(key string, values []string) Field { return slog.Any(key, values) }

func Any(key string, value any) Field { return slog.Any(key, value) }

// Error attaches err under the "error" key.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
