package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	l.WithRunID("abc").WithComponent("cleaner").Info("deduplicated")
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "deduplicated", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "cleaner", entry["component"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "console", Output: &buf})
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendscope.log")
	var buf bytes.Buffer
	l, err := New(Config{File: path, Output: &buf})
	require.NoError(t, err)
	l.Info("loaded")
	require.NoError(t, l.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"msg":"loaded"`), string(b))
	assert.Contains(t, buf.String(), "loaded")
}

func TestCloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendscope.log")
	var buf bytes.Buffer
	l, err := New(Config{File: path, Output: &buf})
	require.NoError(t, err)
	derived := l.WithRunID("r1").WithComponent("render")
	derived.Info("chart written")
	require.NoError(t, derived.Close())

	_, err = l.file.Write([]byte("x"))
	assert.True(t, errors.Is(err, os.ErrClosed), "got %v", err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"run_id":"r1"`)

	assert.NoError(t, Nop().Close())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
