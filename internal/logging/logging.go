// Package logging builds the structured loggers used across abdedge.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration.
type Config struct {
	// Level is one of debug, info, warn or error. Unknown levels mean info.
	Level string
	// Format is either "json" (the default) or "text".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewLogger returns a logger configured according to cfg.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a [slog.Level], falling back to
// [slog.LevelInfo].
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
