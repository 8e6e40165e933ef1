// Package log configures the process-wide slog default.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger. Unknown level names fall back to info
// so a typo in LOG_LEVEL never silences the process.
func Setup(logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})))
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
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

// WithModule returns the default logger scoped to one module.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
