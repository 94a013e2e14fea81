package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the package at a temporary log directory and resets global state
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origProcessID := processID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	processID = ""
	processIDOnce = sync.Once{}
	sharedCore = nil
	sharedPath = ""

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = nil
		initOnce = sync.Once{}
		processID = origProcessID
		processIDOnce = sync.Once{}
		sharedCore = nil
		sharedPath = ""
		_ = level.UnmarshalText([]byte("debug"))
	})
}

type entry struct {
	Level  string `json:"level"`
	Logger string `json:"logger"`
	Msg    string `json:"msg"`
	Cmd    string `json:"cmd"`
}

func readEntries(t *testing.T, path string) []entry {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []entry
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var e entry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		entries = append(entries, e)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test-component")
	require.NoError(t, err)

	assert.Equal(t, "test-component", logger.Component())
	assert.NotEmpty(t, logger.LogPath())
	assert.Equal(t, logDir, filepath.Dir(logger.LogPath()))
}

func TestLoggerLevels(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	logger.Debugf("Debug message")
	logger.Infof("Info message %d", 123)
	logger.Warnf("Warning message")
	logger.Errorf("Error message")
	require.NoError(t, logger.Sync())

	entries := readEntries(t, logger.LogPath())
	require.Len(t, entries, 4)

	assert.Equal(t, entry{Level: "DEBUG", Logger: "test", Msg: "Debug message"}, entries[0])
	assert.Equal(t, entry{Level: "INFO", Logger: "test", Msg: "Info message 123"}, entries[1])
	assert.Equal(t, entry{Level: "WARN", Logger: "test", Msg: "Warning message"}, entries[2])
	assert.Equal(t, entry{Level: "ERROR", Logger: "test", Msg: "Error message"}, entries[3])
}

func TestMultipleComponentsShareFile(t *testing.T) {
	setupTestDir(t)

	logger1, err := NewLogger("component1")
	require.NoError(t, err)
	logger2, err := NewLogger("component2")
	require.NoError(t, err)

	assert.Equal(t, logger1.LogPath(), logger2.LogPath())

	logger1.Infof("from one")
	logger2.Infof("from two")
	require.NoError(t, logger1.Sync())

	entries := readEntries(t, logger1.LogPath())
	require.Len(t, entries, 2)
	assert.Equal(t, "component1", entries[0].Logger)
	assert.Equal(t, "component2", entries[1].Logger)
}

func TestWithAddsFields(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("tools")
	require.NoError(t, err)

	logger.With("cmd", "click").Infof("dispatched")
	require.NoError(t, logger.Sync())

	entries := readEntries(t, logger.LogPath())
	require.Len(t, entries, 1)
	assert.Equal(t, "click", entries[0].Cmd)
}

func TestSetLevel(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	require.NoError(t, SetLevel("warn"))
	logger.Infof("dropped")
	logger.Warnf("kept")
	require.NoError(t, logger.Sync())

	entries := readEntries(t, logger.LogPath())
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Msg)

	assert.Error(t, SetLevel("loud"))
}

func TestGetProcessID(t *testing.T) {
	setupTestDir(t)

	id1 := GetProcessID()
	id2 := GetProcessID()

	assert.NotEmpty(t, id1)
	assert.Equal(t, id1, id2)
}

func TestGetLogDirectory(t *testing.T) {
	setupTestDir(t)

	dir, err := GetLogDirectory()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLogPathFormat(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	fileName := filepath.Base(logger.LogPath())
	require.True(t, strings.HasSuffix(fileName, "-browsercmd.log"), fileName)
	assert.Equal(t, GetProcessID(), strings.TrimSuffix(fileName, "-browsercmd.log"))
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Infof("nothing %s", "happens")
	assert.Empty(t, logger.LogPath())
}
