// Package logger provides slog loggers with level-colored terminal output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Handler is a text slog.Handler that colors lines by level: warnings
// yellow, errors red, and persistence messages green so database writes
// stand out in a long run.
type Handler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
}

// NewHandler creates a colored handler writing to out.
func NewHandler(out io.Writer, level slog.Level) *Handler {
	return &Handler{mu: &sync.Mutex{}, out: out, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Time.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(r.Level.String())
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	})

	line := colorFor(r.Level, r.Message) + sb.String() + colorReset + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup flattens groups; attribute grouping is not worth the noise
// for terminal output.
func (h *Handler) WithGroup(string) slog.Handler { return h }

func colorFor(level slog.Level, msg string) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case strings.Contains(msg, "Persisting") || strings.Contains(msg, "persisted") || strings.Contains(msg, "written"):
		return colorGreen
	case level < slog.LevelInfo:
		return colorGray
	default:
		return colorReset
	}
}

// NewLogger creates a colored logger writing to the given sink.
func NewLogger(out io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(out, level))
}

// NewDefaultLogger creates a colored logger on stderr at the given level.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(os.Stderr, level)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
