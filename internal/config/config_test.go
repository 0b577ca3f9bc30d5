package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")

	cfg := Load()

	assert.Equal(t, 3, cfg.Pipeline.Concurrency)
	assert.Equal(t, 150, cfg.Pipeline.MaxCandidates)
	require.NotNil(t, cfg.Relevance.Threshold)
	assert.InDelta(t, 0.5, *cfg.Relevance.Threshold, 1e-9)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.InDelta(t, 0.2, *cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 8000, cfg.LLM.MaxBodyChars)
	assert.Equal(t, "@every 1h", cfg.Scheduler.CronExpression)
	assert.Equal(t, time.UTC.String(), cfg.Scheduler.Location().String())
	assert.Len(t, cfg.Sources.Feeds, 4)
	assert.Len(t, cfg.Sources.Pages, 2)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
redis:
  addr: localhost:6379
  claimTtl: 5m
scheduler:
  cronExpression: "0 * * * *"
  timezone: Europe/Berlin
llm:
  model: gpt-4.1-mini
  requestsPerSecond: 2
pipeline:
  concurrency: 5
relevance:
  keywords: [hurricane, flood]
  threshold: 0.6
sources:
  feeds: [https://feeds.example.com/rss]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(concurrencyEnv, "4")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.ClaimTTL)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.InDelta(t, 2.0, cfg.LLM.RequestsPerSecond, 1e-9)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency, "env wins over file")
	assert.Equal(t, 150, cfg.Pipeline.MaxCandidates)
	assert.Equal(t, []string{"hurricane", "flood"}, cfg.Relevance.Keywords)
	require.NotNil(t, cfg.Relevance.Threshold)
	assert.InDelta(t, 0.6, *cfg.Relevance.Threshold, 1e-9)
	assert.Equal(t, []string{"https://feeds.example.com/rss"}, cfg.Sources.Feeds)
	assert.Empty(t, cfg.Sources.Pages)
	assert.Equal(t, 100, cfg.Sources.PageLinkLimit)
}

func TestLoadBadFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unclosed"), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(concurrencyEnv, "zero")

	cfg := Load()
	assert.Equal(t, 3, cfg.Pipeline.Concurrency)
	assert.Len(t, cfg.Sources.Feeds, 4)
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
llm:
  temperature: 0
relevance:
  threshold: 0
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, *cfg.LLM.Temperature)
	require.NotNil(t, cfg.Relevance.Threshold)
	assert.Zero(t, *cfg.Relevance.Threshold)
}
