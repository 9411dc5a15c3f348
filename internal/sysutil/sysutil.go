// Package sysutil holds process bootstrap helpers shared by the binaries.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level from a name such as "debug" or
// "WARNING". Blank and unknown names select info.
func SetLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// NewLogger builds the process logger writing to w (stderr when nil) and
// installs it as the zerolog global, which request handlers fall back to
// outside the HTTP middleware. pretty selects the console format.
func NewLogger(w io.Writer, level string, pretty bool, service, version string) zerolog.Logger {
	SetLogLevel(level)
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
	log.Logger = l
	return l
}
