// Package logging builds the service zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelrecap/travelrecap/internal/config"
)

// New returns a logger tagged with service and version. Console output is
// used when format is "console".
func New(cfg config.LoggingConfig, service, version string) zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg, service, version)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, service, version string) zerolog.Logger {
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// Bootstrap returns a logger for failures that happen before the
// configuration is loaded.
func Bootstrap(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}
