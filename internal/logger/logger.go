// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects level and output format ("json" or "text").
type Config struct {
	Level  slog.Level
	Format string
	Output io.Writer
}

// FromFlags maps the debug switch and format name onto a Config.
func FromFlags(debug bool, format string) Config {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return Config{Level: level, Format: strings.ToLower(format)}
}

// New builds a logger and installs it as the slog default.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	l := slog.New(handler).With("service", "docqa")
	slog.SetDefault(l)
	return l
}
