package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestSetup_WritesJSONLToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "topicmap.log")
	logger, cleanup, err := Setup(path, slog.LevelInfo)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("view built", "satellites", 3)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "view built", rec["msg"])
	assert.Equal(t, float64(3), rec["satellites"])
}

func TestSetup_NoFile(t *testing.T) {
	logger, cleanup, err := Setup("", slog.LevelWarn)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).With("component", "x").Info("hello")
	assert.Contains(t, buf.String(), `"component":"x"`)
}
