// Package logging builds the zerolog loggers used by both binaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// New returns a console logger for the given profile tagged with app.
// A nil writer means stdout.
func New(profile Profile, app string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	switch profile {
	case ProfileTest:
		output.NoColor = true
		output.PartsExclude = []string{zerolog.TimestampFieldName}
		return zerolog.New(output).Level(zerolog.DebugLevel).With().Str("app", app).Logger()
	default:
		return zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Str("app", app).Logger()
	}
}

// Component returns a child logger with a component field.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
