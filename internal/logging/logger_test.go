package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/omfseries/internal/config"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: slog.LevelInfo, Format: "json"}, "omfseries", "1.2.3")

	logger.Debug("hidden")
	logger.Info("extracting series", "label", "ges")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "extracting series", line["msg"])
	assert.Equal(t, "omfseries", line["app"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "ges", line["label"])
}

func TestDevLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: slog.LevelWarn, Format: "dev"}, "omfseries", "dev")

	logger.Info("hidden")
	logger.Warn("cache write failed", "path", "/x")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cache write failed")
	assert.Contains(t, out, "/x")
}
