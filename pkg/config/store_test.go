package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path string, sections map[string]map[string]interface{}) {
	t.Helper()
	data, err := json.MarshalIndent(map[string]interface{}{
		"version":  "1.0",
		"sections": sections,
	}, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestNewFileStore(t *testing.T) {
	t.Run("custom path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		require.NoError(t, err)
		assert.Equal(t, configPath, store.Path())
		assert.False(t, store.IsModified())
	})

	t.Run("default path", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		store, err := NewFileStore("")
		require.NoError(t, err)

		want, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, want, store.Path())
		assert.Equal(t, ".browsercmd", filepath.Base(filepath.Dir(store.Path())))
	})

	t.Run("loads existing file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		writeConfigFile(t, configPath, map[string]map[string]interface{}{
			"browser": {"headless": false},
		})

		store, err := NewFileStore(configPath)
		require.NoError(t, err)

		section, err := store.GetSection("browser")
		require.NoError(t, err)
		assert.Equal(t, false, section["headless"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte("{invalid json}"), 0o644))

		_, err := NewFileStore(configPath)
		assert.Error(t, err)
	})
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := &FileStore{path: filepath.Join(t.TempDir(), "missing.json")}
	require.NoError(t, store.Load())

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")
	store, err := NewFileStore(configPath)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("navigation", map[string]interface{}{
		"denied_urls": []interface{}{"*.internal"},
	}))
	assert.True(t, store.IsModified())

	require.NoError(t, store.Save())
	assert.False(t, store.IsModified())
	assert.NoFileExists(t, configPath+".tmp")

	reloaded, err := NewFileStore(configPath)
	require.NoError(t, err)
	section, err := reloaded.GetSection("navigation")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"*.internal"}, section["denied_urls"])
}

func TestFileStore_CopiesData(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	data := map[string]interface{}{"headless": true}
	require.NoError(t, store.SetSection("browser", data))
	data["headless"] = false

	got, err := store.GetSection("browser")
	require.NoError(t, err)
	assert.Equal(t, true, got["headless"], "stored data must not alias the caller's map")

	got["headless"] = false
	again, err := store.GetSection("browser")
	require.NoError(t, err)
	assert.Equal(t, true, again["headless"], "returned data must not alias the stored map")

	require.NoError(t, store.SetAll(map[string]map[string]interface{}{
		"commands": {"evaluate": false},
	}))
	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, false, all["commands"]["evaluate"])
}

func TestFileStore_GetMissingSection(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	section, err := store.GetSection("nope")
	require.NoError(t, err)
	assert.NotNil(t, section)
	assert.Empty(t, section)
}
