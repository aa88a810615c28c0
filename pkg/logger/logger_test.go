package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProduccionEscribeJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Out: &buf})
	l.Info().Str("tenant_id", "t1").Int64("number", 3).Msg("documento firmado")
	l.Debug().Msg("no debe salir")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "documento firmado", entry["message"])
	assert.Equal(t, "t1", entry["tenant_id"])
	assert.Equal(t, "fiscal-ao", entry["service"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("desconocido"))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error().Msg("descartado") })
}
