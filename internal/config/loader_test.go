package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Scoring.CacheBackend)
	assert.Equal(t, 5, cfg.Scoring.Concurrency)
	assert.Equal(t, 2160*time.Hour, cfg.Scoring.CacheTTL)
	assert.Equal(t, "paper.scored", cfg.Kafka.Topic)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
log:
  level: debug
scoring:
  concurrency: 3
  cache_backend: redis
  cache_ttl: 24h
llm:
  model: gpt-4o-mini
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Scoring.Concurrency)
	assert.Equal(t, "redis", cfg.Scoring.CacheBackend)
	assert.Equal(t, 24*time.Hour, cfg.Scoring.CacheTTL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	t.Setenv("PAPERSCORE_LOG_LEVEL", "error")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg.Scoring.CacheBackend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg.Scoring.CacheBackend = "postgres"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeConcurrency(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg.Scoring.Concurrency = -1
	assert.Error(t, cfg.Validate())
}
