package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 1024, cfg.Store.Dimensions)
	assert.Equal(t, 10, cfg.Chunking.ChunkSizeMin)
	assert.Equal(t, 100, cfg.Chunking.ChunkSizeMax)
	assert.Equal(t, "rule_based", cfg.Summary.Method)
	assert.True(t, cfg.Discovery.RespectGitignore)

	require.NoError(t, Validate(cfg))
}

func TestLoader_UsesDefaultsWhenNoFilePresent(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Store.Path, cfg.Store.Path)
}

func TestLoader_LoadsFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "store:\n  path: custom.db\n  dimensions: 256\nembedding:\n  provider: mock\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codegraph.yaml"), []byte(content), 0o644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.Store.Path)
	assert.Equal(t, 256, cfg.Store.Dimensions)
}

func TestLoader_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "store:\n  path: file.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codegraph.yaml"), []byte(content), 0o644))

	t.Setenv("CODEGRAPH_STORE_PATH", "env.db")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Store.Path)
}

func TestLoader_RejectsInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	content := "store:\n  dimensions: -1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codegraph.yaml"), []byte(content), 0o644))

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("accepts default configuration", func(t *testing.T) {
		require.NoError(t, Validate(Default()))
	})

	t.Run("rejects unknown embedding provider", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Provider = "bogus"
		assert.ErrorIs(t, Validate(cfg), ErrInvalidProvider)
	})

	t.Run("rejects http provider without endpoint", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Provider = "http"
		cfg.Embedding.Endpoint = ""
		assert.ErrorIs(t, Validate(cfg), ErrEmptyEndpoint)
	})

	t.Run("rejects non-positive store dimensions", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Dimensions = 0
		assert.ErrorIs(t, Validate(cfg), ErrInvalidDimensions)
	})

	t.Run("rejects chunk_size_max below chunk_size_min", func(t *testing.T) {
		cfg := Default()
		cfg.Chunking.ChunkSizeMax = 1
		cfg.Chunking.ChunkSizeMin = 10
		assert.ErrorIs(t, Validate(cfg), ErrInvalidChunkSize)
	})

	t.Run("rejects invalid summary method", func(t *testing.T) {
		cfg := Default()
		cfg.Summary.Method = "bogus"
		assert.ErrorIs(t, Validate(cfg), ErrInvalidMethod)
	})

	t.Run("combines multiple errors", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Provider = "bogus"
		cfg.Store.Dimensions = -1
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}
