package util

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dump prints o as indented JSON to w, for --dump debugging output.
func Dump(w io.Writer, o interface{}) {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "--- DUMP FAILED: %s ---\n", err)
		return
	}
	fmt.Fprintf(w, "--- DUMP ---\n\n%s\n\n", string(b))
}

// SetupLogging points the global logger at a console writer on w and sets
// the global level, e.g. "debug", "info" or "warn".
func SetupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	return nil
}
