package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Setup installs the process-wide slog logger. format "json" emits JSON lines;
// anything else uses the colourised tint handler for local development.
func Setup(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: lvl, TimeFormat: "15:04:05"})
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
