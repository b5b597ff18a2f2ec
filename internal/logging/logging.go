// Package logging builds the zerolog loggers used by the console and the API
// server. The console writes to a file because the terminal belongs to the UI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const filePermission = 0o664

// Options configures a logger.
type Options struct {
	// Path of an append-only log file. Empty writes to Writer (or stderr).
	Path   string
	Writer io.Writer
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Console renders human-readable output instead of JSON.
	Console bool
}

// Logger bundles the configured logger with the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	l := &Logger{}
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = file
		out = zerolog.SyncWriter(file)
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: l.file != nil}
	}

	l.Logger = zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return l, nil
}

// Close releases the log file when one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel converts common level names (case-insensitive) to zerolog levels.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Nop returns a disabled logger, handy as a default for optional dependencies.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
