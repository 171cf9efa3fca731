package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string // "console" or "json"
	TimeFormat string
	Output     io.Writer
}

// New builds a zerolog logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Setup replaces the global logger used through zerolog/log.
func Setup(cfg Config) zerolog.Logger {
	l := New(cfg)
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}
	log.Logger = l
	return l
}
