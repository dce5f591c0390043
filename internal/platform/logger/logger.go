// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"candle_catalog/internal/shared/envutil"
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels. Unknown values mean info.
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

// New builds a text or JSON logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup installs the logger described by LOG_LEVEL and LOG_FORMAT as the default and returns it.
func Setup() *slog.Logger {
	return SetupTo(os.Stdout)
}

// SetupTo is Setup for commands whose stdout carries data.
func SetupTo(w io.Writer) *slog.Logger {
	l := New(w, envutil.Get("LOG_LEVEL", "info"), envutil.Get("LOG_FORMAT", "text"))
	slog.SetDefault(l)
	return l
}
