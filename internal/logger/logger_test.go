package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	WithFile(log, "photo.jpg").Info("Created")
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), "file=photo.jpg")
	assert.Contains(t, buf.String(), `msg=Created`)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = &buf

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	WithFileOperation(log, "a.png", "encode").Error("Could not save")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Could not save", entry["message"])
	assert.Equal(t, "a.png", entry["file"])
	assert.Equal(t, "encode", entry["operation"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "error"
	cfg.Output = &buf

	log, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())

	log.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLoggerFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "imresize.log")
	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.Console = false
	cfg.Output = &buf

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.Info("Generated 1 images")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Generated 1 images")
	assert.Empty(t, buf.String())
}
