package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger: JSON at info level, debug in dev.
// Also installed as slog default so middleware can log without plumbing.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := withTraceIDs(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	log := slog.New(handler).With("service", "imageserver")
	slog.SetDefault(log)

	return log
}
