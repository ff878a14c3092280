package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warning", WARN},
		{"WARN", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestJSONOutputWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(INFO, true)
	logger.SetOutput(&buf)

	logger.WithField("timekeeper", "default").Info("timing stopped", map[string]interface{}{"name": "render"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "timing stopped", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "default", entry["timekeeper"])
	assert.Equal(t, "render", entry["name"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WARN, false)
	logger.SetOutput(&buf)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestWithFieldDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(INFO, true)
	logger.SetOutput(&buf)

	logger.WithField("request", "a")
	logger.Info("plain")

	assert.NotContains(t, buf.String(), "request")
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "timekeeper.log")

	logger, err := NewFileLogger(path, INFO, true, FileOptions{})
	require.NoError(t, err)
	logger.SetOutput(os.Stdout)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Logger initialized")
}

func TestDiscardFatalDoesNotExit(t *testing.T) {
	logger := Discard()

	assert.NotPanics(t, func() {
		logger.Fatal("ignored", map[string]interface{}{"key": "value"})
		logger.WithField("key", "value").Fatal("ignored")
	})
}
