package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "hirewatch-bot", cfg.Crawler.UserAgent)
	require.Equal(t, 4, cfg.Crawler.Workers)
	require.Equal(t, 5, cfg.Crawler.MaxPagesPerDomain)
	require.Equal(t, 15*time.Second, cfg.Crawler.RequestTimeout())

	require.Equal(t, 2*time.Second, cfg.RateLimit.MinDelay())
	require.Equal(t, 5*time.Second, cfg.RateLimit.MaxDelay())
	require.Equal(t, 20, cfg.RateLimit.RequestsPerDomain)
	require.Equal(t, time.Hour, cfg.RateLimit.Window())
	require.Equal(t, 2.0, cfg.RateLimit.BackoffMultiplier)
	require.Equal(t, 5*time.Minute, cfg.RateLimit.MaxBackoff())

	require.Equal(t, 24*time.Hour, cfg.Robots.TTL())
	require.Equal(t, 10*time.Second, cfg.Robots.FetchTimeout())

	require.Equal(t, 85, cfg.Dedup.SimilarityThreshold)
	require.Equal(t, 10.0, cfg.Monitor.ScoreThreshold)
	require.Empty(t, cfg.Database.DSN)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hirewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawler:
  user_agent: acme-crawler
  workers: 8
rate_limit:
  min_delay_seconds: 1
  max_delay_seconds: 3
dedup:
  blocklist:
    - linkedin.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "acme-crawler", cfg.Crawler.UserAgent)
	require.Equal(t, 8, cfg.Crawler.Workers)
	require.Equal(t, time.Second, cfg.RateLimit.MinDelay())
	require.Equal(t, 3*time.Second, cfg.RateLimit.MaxDelay())
	require.Equal(t, []string{"linkedin.com"}, cfg.Dedup.Blocklist)
	// Untouched sections keep their defaults.
	require.Equal(t, 20, cfg.RateLimit.RequestsPerDomain)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HIREWATCH_CRAWLER_USER_AGENT", "env-bot")
	t.Setenv("HIREWATCH_RATE_LIMIT_REQUESTS_PER_DOMAIN", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-bot", cfg.Crawler.UserAgent)
	require.Equal(t, 7, cfg.RateLimit.RequestsPerDomain)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative min delay", func(c *Config) { c.RateLimit.MinDelaySec = -1 }},
		{"max below min", func(c *Config) { c.RateLimit.MinDelaySec = 5; c.RateLimit.MaxDelaySec = 2 }},
		{"zero quota", func(c *Config) { c.RateLimit.RequestsPerDomain = 0 }},
		{"multiplier below one", func(c *Config) { c.RateLimit.BackoffMultiplier = 0.5 }},
		{"zero workers", func(c *Config) { c.Crawler.Workers = 0 }},
		{"zero page budget", func(c *Config) { c.Crawler.MaxPagesPerDomain = 0 }},
		{"threshold out of range", func(c *Config) { c.Dedup.SimilarityThreshold = 150 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
