package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewLogger builds the process logger: text or JSON on stdout, plus a JSON
// file sink when LOG_FILE is set. The returned func closes the file.
func NewLogger(cfg LogConfig) (*slog.Logger, func() error) {
	noop := func() error { return nil }
	console := consoleHandler(os.Stdout, cfg)
	if cfg.File == "" {
		return slog.New(console), noop
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(console)
		logger.Error("opening log file, logging to stdout only", "file", cfg.File, "error", err)
		return logger, noop
	}
	return NewLoggerWithWriters(os.Stdout, file, cfg), file.Close
}

// NewLoggerWithWriters fans out to a console handler and a JSON handler on file.
func NewLoggerWithWriters(stdout, file io.Writer, cfg LogConfig) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(slogmulti.Fanout(consoleHandler(stdout, cfg), fileHandler))
}

func consoleHandler(w io.Writer, cfg LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
