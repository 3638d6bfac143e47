// Package logging provides the structured logger for the service.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind the small leveled interface the rest of the
// service uses.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a new Logger writing to stderr. When pretty is set the
// output is the human-readable console format instead of JSON.
func NewLogger(level string, pretty bool) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if pretty {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zl = zerolog.New(os.Stderr)
	}
	zl = zl.Level(lvl).With().Timestamp().Logger()

	return &Logger{zl: zl}
}

// Debug logs a debug message with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { emit(l.zl.Debug(), msg, kv) }

// Info logs an informational message with alternating key/value pairs.
func (l *Logger) Info(msg string, kv ...any) { emit(l.zl.Info(), msg, kv) }

// Warn logs a warning message with alternating key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) { emit(l.zl.Warn(), msg, kv) }

// Error logs an error message with alternating key/value pairs.
func (l *Logger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
