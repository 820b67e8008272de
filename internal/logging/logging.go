// Package logging builds the zerolog loggers the binaries inject into
// pipeline components.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/config"
)

// New creates a logger for the named service from the log config.
func New(cfg config.LogConfig, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}
