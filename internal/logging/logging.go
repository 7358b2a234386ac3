package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"suumo-checker/internal/config"
)

// Setup installs the default slog handler described by cfg and routes the
// standard log package through it, so log.Printf call sites keep working.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	return SetupWriter(os.Stdout, cfg)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	switch {
	case strings.EqualFold(cfg.Format, "json"):
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    !cfg.Color,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	// slog.SetDefault already redirects log.Printf; drop the stdlib timestamp prefix
	// so it is not printed twice.
	log.SetFlags(0)
	return logger
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
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
