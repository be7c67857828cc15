package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPathLeavesAbsolutePathAlone(t *testing.T) {
	got, err := ExpandPath("/var/lib/iqdb/catalog.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/iqdb/catalog.db", got)
}

func TestExpandPathExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.iqdb/catalog.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".iqdb", "catalog.db"), got)
}

func TestDefaultConfigHasDBPathUnderIqdbDir(t *testing.T) {
	dir, err := IqdbDir()
	require.NoError(t, err)

	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "catalog.db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "s3", cfg.Backup.Provider)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := DefaultConfig()
	require.NoError(t, err)
	cfg.LogLevel = "debug"
	cfg.Backup.Bucket = "my-bucket"

	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, "my-bucket", loaded.Backup.Bucket)
}

func TestLoadMissingConfigReturnsError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := Load()
	require.Error(t, err)
}
