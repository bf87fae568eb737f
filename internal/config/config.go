// Package config holds the runtime settings of the crop server and builds its
// logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
)

// Config holds the server configuration. The command line binds every field
// to a flag and a PENCROP_* environment variable.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is "console" for human-readable output or "json".
	LogFormat string

	// Language is the default Tesseract language.
	Language string

	// BorderColor and BorderWidth style the crop outline in previews.
	BorderColor string
	BorderWidth int
	// DimOutside shades the preview outside the crop rectangle.
	DimOutside bool

	// MaxSessions bounds the number of open crop sessions. The oldest
	// session is evicted when a new one would exceed it.
	MaxSessions int

	// Enhance runs handwriting enhancement before OCR unless a request
	// overrides it.
	Enhance bool
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "console",
		Language:    "eng",
		BorderColor: "#ffffff",
		BorderWidth: 2,
		DimOutside:  false,
		MaxSessions: 16,
		Enhance:     true,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil || c.LogLevel == "" {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: want console or json", c.LogFormat)
	}
	if c.Language == "" {
		return errors.New("language must not be empty")
	}
	if _, err := colorful.Hex(c.BorderColor); err != nil {
		return fmt.Errorf("invalid border color %q: %w", c.BorderColor, err)
	}
	if c.BorderWidth < 1 {
		return fmt.Errorf("border width must be at least 1, got %d", c.BorderWidth)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("max sessions must be at least 1, got %d", c.MaxSessions)
	}
	return nil
}

// NewLogger builds the process logger writing to w. Stdout carries the
// protocol, so callers pass stderr.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
