// File: control/log.go
// Author: momentics <momentics@gmail.com>
//
// Package-wide structured logger. Defaults to a human-readable console
// writer at InfoLevel; callers needing JSON output or a different sink
// call SetLogger before the runtime starts.

package control

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-wide logger used by the scheduler and its
// supporting components.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

// SetLogger replaces the package-wide logger.
func SetLogger(l zerolog.Logger) {
	Log = l
}
