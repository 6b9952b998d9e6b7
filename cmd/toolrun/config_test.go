package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolrun"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, toolrun.Sequential, cfg.mode())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "toolrun.yaml", `
timeout: 2s
concurrent: true
log_level: debug
chunk_size: 64
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.Concurrent)
	assert.Equal(t, 64, cfg.ChunkSize)
	assert.Equal(t, toolrun.Concurrent, cfg.mode())
	lvl, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, "c.yaml", "concurrent: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Concurrent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, toolrun.DefaultChunkSize, cfg.ChunkSize)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")

	_, err = loadConfig(writeFile(t, "bad.yaml", "timeout: [\n"))
	require.ErrorContains(t, err, "parse config")

	_, err = loadConfig(writeFile(t, "neg.yaml", "chunk_size: -1\n"))
	require.ErrorContains(t, err, "chunk_size")

	_, err = loadConfig(writeFile(t, "lvl.yaml", "log_level: loud\n"))
	require.ErrorContains(t, err, "log_level")
}
