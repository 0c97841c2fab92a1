package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})

	log.Info().Msg("descartado")
	log.Named("consumer").Warn().Str("movement_id", "M1").Msg("rechazado")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "consumer", entry["component"])
	assert.Equal(t, "M1", entry["movement_id"])
	assert.Equal(t, "rechazado", entry["message"])
}

func TestNop_NoEscribe(t *testing.T) {
	l := logger.Nop()
	l.Error().Msg("nada")
}
