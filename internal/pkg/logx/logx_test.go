package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureGlobal points the global logger at a buffer for the duration of the test.
// Tests using it must not run in parallel.
func captureGlobal(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })

	buf := &bytes.Buffer{}
	log.Logger = newLogger(buf, level)
	return buf
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestHelpers_WriteFields(t *testing.T) {
	buf := captureGlobal(t, zerolog.DebugLevel)

	Info("Media grant issued", "room", "lobby", "count", 2)
	Error(errors.New("boom"), "Signing failed", "room", "lobby")

	got := entries(t, buf)
	require.Len(t, got, 2)

	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "Media grant issued", got[0]["message"])
	assert.Equal(t, "lobby", got[0]["room"])
	assert.EqualValues(t, 2, got[0]["count"])
	assert.Equal(t, ServiceName, got[0]["service"])
	assert.Contains(t, got[0]["caller"], "logx_test.go")

	assert.Equal(t, "error", got[1]["level"])
	assert.Equal(t, "boom", got[1]["error"])
}

func TestHelpers_OddFieldsDropped(t *testing.T) {
	buf := captureGlobal(t, zerolog.DebugLevel)

	Warn("Roster watcher dropped", "room")

	got := entries(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "Warn", got[0]["log_level"])
	assert.Equal(t, "Roster watcher dropped", got[1]["message"])
	assert.NotContains(t, got[1], "room")
}

func TestHelpers_RespectLevel(t *testing.T) {
	buf := captureGlobal(t, zerolog.InfoLevel)

	Debug("Health check endpoint hit")
	assert.Empty(t, buf.String())
}

func TestComponent(t *testing.T) {
	buf := captureGlobal(t, zerolog.DebugLevel)

	logger := Component("presence")
	logger.Info().Msg("Presence event applied")

	got := entries(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "presence", got[0]["component"])
	assert.Equal(t, ServiceName, got[0]["service"])
}
