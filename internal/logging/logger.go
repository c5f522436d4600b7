// Package logging builds the zerolog loggers used across vdl.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		TimeFormat: time.Kitchen,
	}
}

// NewConfig builds a Config from the textual level and format found in settings
func NewConfig(level, format string) Config {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(level)
	switch strings.ToLower(format) {
	case FormatJSON, FormatConsole:
		cfg.Format = strings.ToLower(format)
	}
	return cfg
}

// ParseLevel maps trace/debug/info/warn/error to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates a logger writing to w, or stderr when w is nil
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	output := w
	if cfg.Format != FormatJSON {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}
