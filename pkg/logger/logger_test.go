package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Str("request_id", "abc").Msg("kept")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Contains(t, entry, "time")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	l := New(Config{Level: "chatty", Output: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "console", Output: &buf})
	l.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}
