// Package logging constructs the zerolog.Logger used throughout the realm
// and world servers.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing to stderr. pretty selects the
// human-readable console writer (for local development) over structured
// JSON (for production).
func New(pretty bool) zerolog.Logger {
	var w = os.Stderr
	if pretty {
		cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(cw).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
