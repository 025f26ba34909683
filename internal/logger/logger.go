// Package logger provides module-aware structured logging built on log/slog.
//
// Components receive a Logger (usually logger.Global().Module("name")) and log with typed fields:
//
//	log := logger.Global().Module("backend")
//	log.Info("Spin submitted",
//	    logger.Int("number", 14),
//	    logger.Duration("elapsed", elapsed))
//
// Console output is human-readable text; the optional file output is JSON.
package logger

import (
	"context"
	"time"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging interface injected into components
type Logger interface {
	// Module returns a logger scoped to a sub-module ("backend" -> "backend.cache")
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger carrying the given fields on every record
	With(fields ...Field) Logger
	// WithContext attaches the trace ID stored in ctx, if any
	WithContext(ctx context.Context) Logger

	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates a 64-bit integer field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates an unsigned 64-bit integer field.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float field. Values are rounded to 3 decimals on output.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field. The key is always "error"; a nil error logs a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field rendered as "1.5s", "200ms".
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with an arbitrary JSON-serializable value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}
