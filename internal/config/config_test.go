package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default()
	assert.Greater(t, cfg.Index.Workers, 0)
	assert.Greater(t, cfg.Bloom.Capacity, uint64(0))
	assert.Greater(t, cfg.Search.CacheSize, 0)
	assert.NotEmpty(t, cfg.Index.Exclude)
}

func TestLoadWithoutConfigFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, Default().Index.Workers, cfg.Index.Workers)
}
