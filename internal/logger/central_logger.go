package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

const (
	// traceLevelValue is slog.Level for TRACE level (below Debug which is -4)
	traceLevelValue = slog.Level(-8)

	// floatPrecisionRatio rounds floats to 3 decimal places in log output
	floatPrecisionRatio = 1000.0

	logFilePermissions = 0o600

	moduleKey  = "module"
	errorKey   = "error"
	traceIDKey = "trace_id"
)

var (
	globalLogger   *CentralLogger
	globalLoggerMu sync.Mutex
)

// SetGlobal installs the process-wide CentralLogger.
func SetGlobal(cl *CentralLogger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = cl
}

// Global returns the process-wide CentralLogger, creating a console logger on first use.
func Global() *CentralLogger {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewWriterLogger(os.Stdout, LogLevelInfo)
	}
	return globalLogger
}

type loggerContextKey struct{ name string }

// TraceIDKey is the context key for trace IDs. Use WithTraceID() to set values.
var TraceIDKey = loggerContextKey{"trace_id"}

// WithTraceID returns a new context with the trace ID set
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// CentralLogger owns the output handlers and hands out module loggers
type CentralLogger struct {
	handler  slog.Handler
	level    slog.Level
	timezone *time.Location
	file     *os.File
	mu       sync.Mutex
}

// NewCentralLogger creates a logger writing to the console and/or a JSON file
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz, err := loadTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	level := parseLogLevel(cfg.Level)
	cl := &CentralLogger{level: level, timezone: tz}

	var handlers []slog.Handler
	if cfg.Console {
		handlers = append(handlers, newTextHandler(os.Stdout, level, tz))
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		cl.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}
	cl.handler = newFanoutHandler(handlers...)

	return cl, nil
}

// NewWriterLogger creates a text logger on an arbitrary writer. Tests pass io.Discard or a buffer.
func NewWriterLogger(w io.Writer, level LogLevel) *CentralLogger {
	if w == nil {
		w = os.Stdout
	}
	lvl := parseSlogLevel(level)
	return &CentralLogger{
		handler:  newTextHandler(w, lvl, time.Local),
		level:    lvl,
		timezone: time.Local,
	}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() Logger {
	return NewWriterLogger(io.Discard, LogLevelError).Module("test")
}

// Module returns a logger scoped to a specific module
func (cl *CentralLogger) Module(name string) Logger {
	return &moduleLogger{
		module: name,
		logger: slog.New(cl.handler),
		level:  cl.level,
	}
}

// Flush syncs the log file, if any
func (cl *CentralLogger) Flush() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file == nil {
		return nil
	}
	return cl.file.Sync()
}

// Close flushes and closes the log file, if any
func (cl *CentralLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file == nil {
		return nil
	}
	err := cl.file.Close()
	cl.file = nil
	return err
}

func loadTimezone(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	default:
		tz, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
		}
		return tz, nil
	}
}

// newTextHandler renders "[02.01.2006 15:04:05] INFO msg key=value" style console lines
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(slog.TimeKey, a.Value.Time().In(tz).Format("02.01.2006 15:04:05"))
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == traceLevelValue {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	})
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return traceLevelValue
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseSlogLevel(level LogLevel) slog.Level {
	return parseLogLevel(string(level))
}

// moduleLogger implements Logger for a specific module
type moduleLogger struct {
	module string
	logger *slog.Logger
	level  slog.Level
	fields []Field
}

// Module creates a sub-module logger with its own copy of the accumulated fields.
func (m *moduleLogger) Module(name string) Logger {
	return &moduleLogger{
		module: m.module + "." + name,
		logger: m.logger,
		level:  m.level,
		fields: slices.Clone(m.fields),
	}
}

func (m *moduleLogger) Trace(msg string, fields ...Field) { m.log(traceLevelValue, msg, fields...) }
func (m *moduleLogger) Debug(msg string, fields ...Field) { m.log(slog.LevelDebug, msg, fields...) }
func (m *moduleLogger) Info(msg string, fields ...Field)  { m.log(slog.LevelInfo, msg, fields...) }
func (m *moduleLogger) Warn(msg string, fields ...Field)  { m.log(slog.LevelWarn, msg, fields...) }
func (m *moduleLogger) Error(msg string, fields ...Field) { m.log(slog.LevelError, msg, fields...) }

func (m *moduleLogger) Log(level LogLevel, msg string, fields ...Field) {
	m.log(parseSlogLevel(level), msg, fields...)
}

func (m *moduleLogger) With(fields ...Field) Logger {
	return &moduleLogger{
		module: m.module,
		logger: m.logger,
		level:  m.level,
		fields: slices.Concat(m.fields, fields),
	}
}

func (m *moduleLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return m
	}
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok || traceID == "" {
		return m
	}
	return m.With(String(traceIDKey, traceID))
}

func (m *moduleLogger) Flush() error {
	return nil
}

func (m *moduleLogger) log(level slog.Level, msg string, fields ...Field) {
	if level < m.level {
		return
	}

	attrs := make([]slog.Attr, 0, 1+len(m.fields)+len(fields))
	if m.module != "" {
		attrs = append(attrs, slog.String(moduleKey, m.module))
	}
	for i := range m.fields {
		attrs = append(attrs, fieldToAttr(m.fields[i]))
	}
	for i := range fields {
		attrs = append(attrs, fieldToAttr(fields[i]))
	}

	m.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func roundFloat(val float64) float64 {
	return math.Round(val*floatPrecisionRatio) / floatPrecisionRatio
}

// fieldToAttr converts Field to slog.Attr
func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint64:
		return slog.Uint64(f.Key, v)
	case float64:
		return slog.Float64(f.Key, roundFloat(v))
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	case time.Duration:
		return slog.String(f.Key, v.Round(time.Millisecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}
