// Package logging builds the application's zerolog logger: a console sink,
// app.log with every event, and error.log with errors only.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	appLogName   = "app.log"
	errorLogName = "error.log"
)

// Config holds logger configuration
type Config struct {
	Dir     string    // Directory for app.log and error.log; empty disables file output
	Level   string    // Minimum level: debug, info, warn, error (default: info)
	Console bool      // Also log to the console
	Out     io.Writer // Console destination (default: os.Stderr)
}

// Logger is a zerolog.Logger that owns its log files
type Logger struct {
	zerolog.Logger
	files []*os.File
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New creates a Logger from cfg
func New(cfg Config) (*Logger, error) {
	l := &Logger{}
	var writers []io.Writer

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		appLog, err := l.open(filepath.Join(cfg.Dir, appLogName))
		if err != nil {
			return nil, err
		}
		errorLog, err := l.open(filepath.Join(cfg.Dir, errorLogName))
		if err != nil {
			l.Close()
			return nil, err
		}

		writers = append(writers, appLog, &LevelFilter{Writer: errorLog, Min: zerolog.ErrorLevel})
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	l.Logger = zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("app", "greenie").
		Logger()

	return l, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close closes the log files
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}

func (l *Logger) open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.files = append(l.files, f)
	return f, nil
}

// LevelFilter forwards only events at or above Min
type LevelFilter struct {
	Writer io.Writer
	Min    zerolog.Level
}

// Write drops events written without a level
func (f *LevelFilter) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel implements zerolog.LevelWriter
func (f *LevelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.Min || level == zerolog.NoLevel {
		return len(p), nil
	}
	return f.Writer.Write(p)
}
