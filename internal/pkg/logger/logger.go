package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lenderhub/internal/platform/config"
)

// Init configures the global zerolog logger used across the service.
func Init(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out, err := output(cfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.FilePath).Msg("failed to open log file, falling back to stdout")
		out = os.Stdout
	}
	log.Logger = New(cfg, out)
}

// New builds a logger writing to out, honouring the configured format.
func New(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if cfg.Format == "text" && cfg.Output != "file" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "lenderhub").Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

func output(cfg config.LoggingConfig) (io.Writer, error) {
	if cfg.Output != "file" || cfg.FilePath == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
}
