// Package logging configures the zerolog loggers used across the junction
// services.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout written by every logger
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Format selects how log lines are rendered
type Format string

const (
	// FormatConsole renders human readable, coloured lines
	FormatConsole Format = "console"
	// FormatJSON renders one JSON object per line
	FormatJSON Format = "json"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// New builds a logger writing to w at the given level
func New(w io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	out := w
	if format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: TimeFormat,
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Configure sets up the process-wide logger. Only the first call has an
// effect; later calls return the logger configured by the first.
func Configure(level zerolog.Level, format Format) *zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = TimeFormat
		logger = New(os.Stdout, level, format)
	})
	return &logger
}

// Default returns the process-wide logger, configuring it at info level on
// first use
func Default() *zerolog.Logger {
	return Configure(zerolog.InfoLevel, FormatConsole)
}

// ParseLevel converts a level name into a zerolog level. Unknown names
// fall back to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// ParseFormat converts a format name into a Format
func ParseFormat(name string) Format {
	if strings.EqualFold(strings.TrimSpace(name), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatConsole
}
