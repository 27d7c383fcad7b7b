package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""), "vacío usa info")
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"), "desconocido usa info")
}

func TestComponent_AgregaCampo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "debug", Output: &buf})

	l.Component("inventory").Info().Str("id", "B01").Msg("item creado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "inventory", line["component"])
	assert.Equal(t, "B01", line["id"])
	assert.Equal(t, "item creado", line["message"])
}

func TestLevel_FiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("sí debe salir")
	assert.Contains(t, buf.String(), "sí debe salir")
}
