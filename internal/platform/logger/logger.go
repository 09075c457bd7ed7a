package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services and handlers
// take *slog.Logger and log key-value pairs with the *Context variants so
// request-scoped attributes survive into every line.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

func levelFromEnv() slog.Level {
	switch os.Getenv("MAPLECASE_LOG_LEVEL") {
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
