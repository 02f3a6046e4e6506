package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"

	logger, err := NewWithWriter(cfg, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("actor system started", "system", "bench", "actors", 3)
	require.NoError(t, logger.Close())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "actor system started", entry["msg"])
	assert.Equal(t, "bench", entry["system"])
	assert.EqualValues(t, 3, entry["actors"])
}

func TestNewWithWriterInvalidFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"
	_, err := NewWithWriter(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actorbench.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Output = path

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.With("actor", "counter-1").Debug("spawned actor")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "spawned actor")
	assert.Contains(t, string(data), "counter-1")
}
