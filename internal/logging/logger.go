// Package logging builds the process-wide slog logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/syntrixbase/exprcheck/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	mainLogFile  = "exprcheck.log"
	errorLogFile = "errors.log"
)

// Logger is a configured slog.Logger together with the files it writes.
type Logger struct {
	*slog.Logger
	files []io.Closer
}

// Close flushes and closes every rotating log file.
func (l *Logger) Close() error {
	var errs []error
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
	}
	l.files = nil
	return errors.Join(errs...)
}

// Initialize builds a logger from cfg and installs it as the slog default.
// The caller closes the returned Logger on shutdown.
func Initialize(cfg config.LoggingConfig) (*Logger, error) {
	logger, err := New(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger.Logger)

	logger.Debug("Logging initialized",
		"level", cfg.Level,
		"format", cfg.Format,
		"dir", cfg.Dir,
		"console_enabled", cfg.Console.Enabled,
		"file_enabled", cfg.File.Enabled,
	)
	return logger, nil
}

// New builds a logger from cfg. console overrides the configured console
// stream; nil selects stdout or stderr per cfg.Console.Output.
func New(cfg config.LoggingConfig, console io.Writer) (*Logger, error) {
	l := &Logger{}
	var handlers []slog.Handler

	if cfg.Console.Enabled {
		w := console
		if w == nil {
			w = os.Stdout
			if cfg.Console.Output == "stderr" {
				w = os.Stderr
			}
		}
		handlers = append(handlers, newHandler(w, cfg.Console.Format, ParseLevel(cfg.Console.Level)))
	}

	if cfg.File.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		mainFile := l.rotating(filepath.Join(cfg.Dir, mainLogFile), cfg.Rotation)
		handlers = append(handlers, newHandler(mainFile, cfg.File.Format, ParseLevel(cfg.File.Level)))

		errFile := l.rotating(filepath.Join(cfg.Dir, errorLogFile), cfg.Rotation)
		handlers = append(handlers, NewLevelFilter(newHandler(errFile, cfg.File.Format, slog.LevelWarn), slog.LevelWarn))
	}

	switch len(handlers) {
	case 0:
		l.Logger = slog.New(slog.DiscardHandler)
	case 1:
		l.Logger = slog.New(handlers[0])
	default:
		l.Logger = slog.New(NewMultiHandler(handlers...))
	}
	return l, nil
}

func (l *Logger) rotating(path string, rot config.RotationConfig) *lumberjack.Logger {
	f := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSize,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAge,
		Compress:   rot.Compress,
	}
	l.files = append(l.files, f)
	return f
}

// ParseLevel maps a config level name to a slog.Level. Unknown names are
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
