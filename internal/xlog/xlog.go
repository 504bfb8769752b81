// Package xlog provides the structured logging wrapper used by xnote's
// watch command. It wraps log/slog rather than defining its own logging
// primitives, matching the rest of the corpus's preference for standard
// library facilities when no third-party logging library is in play.
package xlog

import (
	"io"
	"log/slog"
	"os"
)

// Component tags a logger with the subsystem emitting through it, e.g.
// "watcher" or "plugin".
type Component string

// New builds a text-handler slog.Logger writing to w, tagged with
// component. Pass os.Stderr for w in production; tests typically pass an
// io.Discard-backed writer or a bytes.Buffer to assert on output.
func New(w io.Writer, component Component, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", string(component))
}

// Default returns a logger writing to stderr at slog.LevelInfo, tagged
// with component.
func Default(component Component) *slog.Logger {
	return New(os.Stderr, component, slog.LevelInfo)
}
