// Package logging provides the leveled logger threaded through the engine
// components. It wraps zerolog behind a small printf-style surface so
// callers never depend on the backend directly.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a leveled, printf-style logger. A nil *Logger is valid and
// discards everything, so components may be constructed without one.
type Logger struct {
	zl zerolog.Logger
}

// New returns a logger writing human-readable output to w at the given
// level. Unknown level strings fall back to "info".
func New(level string, w io.Writer) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return &Logger{zl: zerolog.New(cw).Level(lvl).With().Timestamp().Logger()}
}

// Default returns a logger writing to stderr at info level.
func Default() *Logger {
	return New("info", os.Stderr)
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying an extra key/value field.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Debug().Msgf(format, args...)
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Info().Msgf(format, args...)
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Warn().Msgf(format, args...)
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Error().Msgf(format, args...)
}
