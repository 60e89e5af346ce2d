package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")

	logger.Debug("hidden")
	logger.Info("purchase created", "id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "purchase created", entry["msg"])
	assert.EqualValues(t, 7, entry["id"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelWarn, "console").Warn("slow", "ms", 1200)
	assert.Contains(t, buf.String(), "msg=slow")
	assert.Contains(t, buf.String(), "ms=1200")
}

func TestSetup_InvalidLevel(t *testing.T) {
	assert.Error(t, Setup("verbose", "console"))
}
