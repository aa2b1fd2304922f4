package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/vjranagit/omfseries/internal/config"
)

// New builds the process logger: tint for "dev", JSON otherwise
func New(w io.Writer, cfg config.LogConfig, appName, version string) *slog.Logger {
	if cfg.Format == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level,
			AddSource:  cfg.Level == slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
	)
}
