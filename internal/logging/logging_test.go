package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-token-server/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "debug", "PROD")

	log.Debug().Str("subject_id", "user-1").Msg("token revoked")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "user-1", entry["subject_id"])
	require.Equal(t, "token revoked", entry["message"])
}

func TestSetupWriter_UnknownLevelIsInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "chatty", "PROD")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
}

func TestSetupWriter_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	logging.SetupWriter(&buf, "info", "dev")

	log.Info().Msg("listening")
	require.Contains(t, buf.String(), "listening")
	require.False(t, json.Valid(buf.Bytes()))
}
