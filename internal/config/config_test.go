package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFromTags(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 200, cfg.Search.BatchSize)
	assert.Equal(t, 0, cfg.Search.BatchDelayMS)
	assert.False(t, cfg.Search.CaseSensitive)
	assert.Equal(t, "NULL", cfg.Display.NullText)
	assert.Equal(t, "file", cfg.State.Backend)
	assert.True(t, cfg.State.Autosave)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Duration(0), cfg.BatchDelay())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[search]
batch_size = 0
case_sensitive = true

[display]
null_text = ""
column_width = 12

[state]
autosave = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Search.BatchSize, "below minimum falls back to default")
	assert.True(t, cfg.Search.CaseSensitive)
	assert.Equal(t, "NULL", cfg.Display.NullText)
	assert.Equal(t, 12, cfg.Display.ColumnWidth)
	assert.False(t, cfg.State.Autosave)
	assert.Equal(t, "2006-01-02 15:04:05", cfg.Display.DateFormat)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	require.NoError(t, cfg.SetValue("search.batch_size", "50"))
	require.NoError(t, cfg.SetValue("state.backend", "postgres"))
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.Search.BatchSize)
	assert.Equal(t, "postgres", loaded.State.Backend)
}

func TestGetSetValue(t *testing.T) {
	cfg := Default()

	v, ok := cfg.GetValue("search.case_sensitive")
	require.True(t, ok)
	assert.Equal(t, "false", v)

	require.NoError(t, cfg.SetValue("search.case_sensitive", "true"))
	v, _ = cfg.GetValue("search.case_sensitive")
	assert.Equal(t, "true", v)

	_, ok = cfg.GetValue("search.nope")
	assert.False(t, ok)

	tests := []struct {
		key, value, errPart string
	}{
		{"search.nope", "1", "unknown config key"},
		{"search.batch_size", "abc", "invalid integer"},
		{"search.batch_size", "0", "below minimum"},
		{"search.batch_size", "1000000", "exceeds maximum"},
		{"search.case_sensitive", "maybe", "invalid boolean"},
		{"state.backend", "redis", "expected one of"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := cfg.SetValue(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestListKeysAndHelp(t *testing.T) {
	keys := ListKeys()
	assert.Contains(t, keys, "search.batch_size")
	assert.Contains(t, keys, "log.file")
	assert.IsIncreasing(t, keys)

	help := GenerateHelpText()
	assert.Contains(t, help, "Search:")
	assert.Contains(t, help, "search.batch_size")
	assert.Contains(t, help, "(default: 200)")
}

func TestLogPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pgrid.log", filepath.Base(cfg.LogPath()))
	cfg.Log.File = "/tmp/x.log"
	assert.Equal(t, "/tmp/x.log", cfg.LogPath())
}
