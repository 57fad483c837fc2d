package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(cfg)}
	h := slog.NewJSONHandler(w, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}

// levelFor: LOG_LEVEL wins; otherwise debug in dev and info elsewhere.
func levelFor(cfg config.Config) slog.Level {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if cfg.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
