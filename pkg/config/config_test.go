package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adstate-project/adstate/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, int64(10_000), cfg.Diff.MinDeltaMicros)
	assert.Equal(t, uint(5), cfg.Retry.Attempts)
	assert.Equal(t, 30, cfg.Context.MaxEntries)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage = "sqlite"
	cfg.Diff.MinDeltaMicros = 500_000
	cfg.Diff.MinDeltaPercent = 2.5
	cfg.Retry.Backoff = 125 * time.Millisecond

	require.NoError(t, config.Save(dir, cfg))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	dir := t.TempDir()
	partial := []byte("diff:\n  min_delta_micros: 1000000\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), partial, 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), cfg.Diff.MinDeltaMicros)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("storage: [unclosed"), 0644))

	_, err := config.Load(dir)
	assert.Error(t, err)
}
