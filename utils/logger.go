package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a level name to a zerolog level; empty means info
func ParseLevel(raw string) (zerolog.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return lvl, nil
}

// NewLogger builds the console logger used by the CLI and sets it as the global logger.
// Output goes to stderr so that plans and reports on stdout stay clean.
func NewLogger(level string, noColor bool) (zerolog.Logger, error) {
	return newLogger(os.Stderr, level, noColor)
}

func newLogger(out io.Writer, level string, noColor bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "dbenforce").Logger()
	log.Logger = logger
	return logger, nil
}
