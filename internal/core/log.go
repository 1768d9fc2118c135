package core

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Component is anything that can name itself for a log line, matching the
// teacher's `core.Log.Warn(m, "msg", "key", val)` call convention where
// the first argument is the emitting module.
type Component interface {
	String() string
}

// Logger wraps a zap.SugaredLogger behind the five levels the daemon's
// components call, plus Fatal for unrecoverable startup errors (spec.md
// §7: only startup failures are fatal).
type Logger struct {
	sugar *zap.SugaredLogger
}

// Log is the process-wide logger, initialized at package load with
// NewLogger(LevelInfo).
var Log = NewLogger(LevelInfo)

// LevelTrace through LevelFatal mirror the teacher's std/log level scale;
// zap has no Trace level, so Trace is emitted as Debug with an extra
// level=trace key/value pair.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a level name (TRACE, DEBUG, INFO, WARN, ERROR, FATAL).
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// NewLogger builds a Logger at the given level using zap's production
// console encoder.
func NewLogger(level Level) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = toZapLevel(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		// Building the default config should never fail; if it somehow
		// does, report it on stderr and fall back to a no-op logger
		// rather than leaving Log nil.
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		logger = zap.NewNop()
	}
	return &Logger{sugar: logger.Sugar()}
}

func toZapLevel(l Level) zap.AtomicLevel {
	var zl zap.AtomicLevel
	switch {
	case l <= LevelTrace:
		zl = zap.NewAtomicLevelAt(-2)
	case l <= LevelDebug:
		zl = zap.NewAtomicLevelAt(-1)
	case l <= LevelInfo:
		zl = zap.NewAtomicLevelAt(0)
	case l <= LevelWarn:
		zl = zap.NewAtomicLevelAt(1)
	default:
		zl = zap.NewAtomicLevelAt(2)
	}
	return zl
}

func (lg *Logger) with(m Component, kvs []any) []any {
	return append([]any{"component", m.String()}, kvs...)
}

// Trace logs at trace level (debug level with a trace marker field).
func (lg *Logger) Trace(m Component, msg string, kvs ...any) {
	lg.sugar.Debugw(msg, lg.with(m, append(kvs, "level", "trace"))...)
}

// Debug logs at debug level.
func (lg *Logger) Debug(m Component, msg string, kvs ...any) {
	lg.sugar.Debugw(msg, lg.with(m, kvs)...)
}

// Info logs at info level.
func (lg *Logger) Info(m Component, msg string, kvs ...any) {
	lg.sugar.Infow(msg, lg.with(m, kvs)...)
}

// Warn logs at warn level.
func (lg *Logger) Warn(m Component, msg string, kvs ...any) {
	lg.sugar.Warnw(msg, lg.with(m, kvs)...)
}

// Error logs at error level.
func (lg *Logger) Error(m Component, msg string, kvs ...any) {
	lg.sugar.Errorw(msg, lg.with(m, kvs)...)
}

// Fatal logs at error level and exits the process with a non-zero status.
// Reserved for the unrecoverable startup failures of spec.md §7: cannot
// bind the IPC listener, cannot allocate the primary hash tables.
func (lg *Logger) Fatal(m Component, msg string, kvs ...any) {
	lg.sugar.Errorw(msg, lg.with(m, kvs)...)
	os.Exit(1)
}

// Sync flushes any buffered log entries; call before process exit.
func (lg *Logger) Sync() error {
	return lg.sugar.Sync()
}
