// Package logging wraps log/slog with the field names used across the engine.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with hypergraph-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler.
// If handler is nil, uses a text handler on stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable lines to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger writing JSON lines to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop returns a Logger that discards everything.
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// WithGraph tags every record with the graph identifier.
func (l *Logger) WithGraph(id any) *Logger {
	return &Logger{Logger: l.Logger.With("graph", id)}
}

// LogCommit logs a successful registration or removal of an element.
func (l *Logger) LogCommit(ctx context.Context, op, kind string, id any, label string) {
	l.DebugContext(ctx, op+" committed",
		"kind", kind,
		"id", id,
		"label", label,
	)
}

// LogVeto logs a mutation rejected by an observer.
func (l *Logger) LogVeto(ctx context.Context, kind string, id any, err error) {
	l.WarnContext(ctx, "mutation vetoed",
		"kind", kind,
		"id", id,
		"error", err,
	)
}

// LogBulkRemove logs a filtered or explicit bulk removal.
func (l *Logger) LogBulkRemove(ctx context.Context, kind string, requested, removed int) {
	if removed < requested {
		l.DebugContext(ctx, "bulk remove skipped unknown elements",
			"kind", kind,
			"requested", requested,
			"removed", removed,
		)
		return
	}
	l.DebugContext(ctx, "bulk remove completed",
		"kind", kind,
		"removed", removed,
	)
}
