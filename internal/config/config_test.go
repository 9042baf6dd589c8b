package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKDL_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadKDL_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := `
indexing {
    workers 8
    batch_size 16
    watch_mode true
}
storage {
    path "/tmp/tucore-symbols.db"
}
search {
    fuzzy_fallback false
    fuzzy_threshold 0.9
    chunk_size 25
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tucore.kdl"), []byte(contents), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Indexing.Workers)
	assert.Equal(t, 16, cfg.Indexing.BatchSize)
	assert.True(t, cfg.Indexing.WatchMode)
	assert.Equal(t, "/tmp/tucore-symbols.db", cfg.Storage.Path)
	assert.False(t, cfg.Search.FuzzyFallback)
	assert.InDelta(t, 0.9, cfg.Search.FuzzyThreshold, 0.0001)
	assert.Equal(t, 25, cfg.Search.ChunkSize)
}

func TestResolvedWorkers_AutoFallsBackToCPUCount(t *testing.T) {
	cfg := Default()
	cfg.Indexing.Workers = 0
	assert.GreaterOrEqual(t, cfg.ResolvedWorkers(), 1)

	cfg.Indexing.Workers = 3
	assert.Equal(t, 3, cfg.ResolvedWorkers())
}
