package core

import (
	"context"
	"log/slog"
	"os"

	"github.com/ndnfwd/fwd/std/log"
)

// LogIdentifiable is implemented by anything that can be named in a log
// line, typically a package-level subsystem (e.g. a worker, a table).
type LogIdentifiable interface {
	String() string
}

// Logger is a thin structured-logging facade over log/slog, kept so that
// the rest of the forwarder logs through a single named component instead
// of importing slog everywhere. The calling convention - a subsystem, a
// message, then alternating key/value pairs - mirrors slog's own.
type Logger struct {
	level  log.Level
	inner  *slog.Logger
}

// Log is the process-wide logger. It is safe for concurrent use.
var Log = NewLogger(log.LevelInfo)

// NewLogger constructs a Logger at the given minimum level, writing to stderr.
func NewLogger(level log.Level) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(log.LevelTrace), // filtering is done by l.level, so SetLevel can lower it
	})
	return &Logger{level: level, inner: slog.New(h)}
}

// SetLevel adjusts the minimum level that will be emitted.
func (l *Logger) SetLevel(level log.Level) {
	l.level = level
}

func (l *Logger) log(level log.Level, id LogIdentifiable, msg string, kv ...any) {
	if level < l.level {
		return
	}
	args := make([]any, 0, len(kv)+2)
	args = append(args, "module", id.String())
	args = append(args, kv...)
	l.inner.Log(context.Background(), slog.Level(level), msg, args...)
}

// Trace logs at trace level.
func (l *Logger) Trace(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelTrace, id, msg, kv...)
}

// Debug logs at debug level.
func (l *Logger) Debug(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelDebug, id, msg, kv...)
}

// Info logs at info level.
func (l *Logger) Info(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelInfo, id, msg, kv...)
}

// Warn logs at warn level.
func (l *Logger) Warn(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelWarn, id, msg, kv...)
}

// Error logs at error level.
func (l *Logger) Error(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelError, id, msg, kv...)
}

// Fatal logs at fatal level and terminates the process.
func (l *Logger) Fatal(id LogIdentifiable, msg string, kv ...any) {
	l.log(log.LevelFatal, id, msg, kv...)
	os.Exit(1)
}
