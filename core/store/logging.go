package store

import (
	"log/slog"
	"os"
	"strings"
)

// Library use stays silent unless a caller injects a logger; the CLI and
// tests opt in through Options.Logger or the environment.
func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	if level, ok := levelFromEnv(); ok {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.DiscardHandler)
}

// levelFromEnv reads LOOM_LOG: debug, info, warn, or error.
func levelFromEnv() (slog.Level, bool) {
	switch strings.ToLower(os.Getenv("LOOM_LOG")) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
