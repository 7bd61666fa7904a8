package util

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	Dump(&buf, map[string]int{"unique_tokens": 6})
	r.Contains(buf.String(), "--- DUMP ---")
	r.Contains(buf.String(), `"unique_tokens": 6`)

	buf.Reset()
	Dump(&buf, make(chan int))
	r.Contains(buf.String(), "DUMP FAILED")
}

func TestSetupLogging(t *testing.T) {
	r := require.New(t)

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	r.NoError(SetupLogging(&buf, "warn"))
	r.Equal(zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("file", "unique_data.txt").Msg("corpus missing")
	r.NotContains(buf.String(), "hidden")
	r.Contains(buf.String(), "corpus missing")
	r.Contains(buf.String(), "unique_data.txt")

	r.NoError(SetupLogging(&buf, ""))
	r.Equal(zerolog.InfoLevel, zerolog.GlobalLevel())

	r.Error(SetupLogging(&buf, "loud"))
}
