package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerURL)
	assert.Equal(t, filepath.Join(dir, "kbsearch.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryFile)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "server_url: http://10.0.0.5:9000\nlog_file: /tmp/custom.log\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.ServerURL)
	assert.Equal(t, "/tmp/custom.log", cfg.LogFile)
	// Unspecified fields keep their defaults.
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryFile)
}
