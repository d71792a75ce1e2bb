package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/alkime/liftlog/internal/config"
)

// SetupLogger configures structured logging based on environment.
func SetupLogger(cfg *config.Config) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(cfg),
	})

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

// SetupCLILogger writes human-readable logs to w. The TUI owns stdout, so
// interactive commands log to a file.
func SetupCLILogger(cfg *config.Config, w io.Writer) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level(cfg),
	}))
	slog.SetDefault(logger)

	return logger
}

// Level is debug in development or when LOG_LEVEL asks for it.
func Level(cfg *config.Config) slog.Level {
	switch {
	case cfg.Env == "development", cfg.LogLevel == "debug":
		return slog.LevelDebug
	case cfg.LogLevel == "warn":
		return slog.LevelWarn
	case cfg.LogLevel == "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
