// Package config loads runtime configuration from file, environment and
// defaults via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all runtime settings.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Robots    RobotsConfig    `mapstructure:"robots"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig tunes the crawl run and HTTP client.
type CrawlerConfig struct {
	UserAgent         string   `mapstructure:"user_agent"`
	Workers           int      `mapstructure:"workers"`
	MaxPagesPerDomain int      `mapstructure:"max_pages_per_domain"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_seconds"`
	MaxBodyBytes      int64    `mapstructure:"max_body_bytes"`
	CareersPaths      []string `mapstructure:"careers_paths"`
}

// RequestTimeout returns the HTTP client timeout.
func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// RateLimitConfig tunes the per-domain politeness throttle.
type RateLimitConfig struct {
	MinDelaySec       float64 `mapstructure:"min_delay_seconds"`
	MaxDelaySec       float64 `mapstructure:"max_delay_seconds"`
	RequestsPerDomain int     `mapstructure:"requests_per_domain"`
	WindowSec         int     `mapstructure:"window_seconds"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	MaxBackoffSec     int     `mapstructure:"max_backoff_seconds"`
}

// MinDelay returns the minimum inter-request delay.
func (c RateLimitConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelaySec * float64(time.Second))
}

// MaxDelay returns the maximum inter-request delay.
func (c RateLimitConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySec * float64(time.Second))
}

// Window returns the per-domain quota window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSec) * time.Second
}

// MaxBackoff returns the backoff ceiling.
func (c RateLimitConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSec) * time.Second
}

// RobotsConfig tunes robots.txt fetching and caching.
type RobotsConfig struct {
	TTLHours        int `mapstructure:"ttl_hours"`
	FetchTimeoutSec int `mapstructure:"fetch_timeout_seconds"`
}

// TTL returns how long cached robots.txt entries stay fresh.
func (c RobotsConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// FetchTimeout returns the robots.txt fetch timeout.
func (c RobotsConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// DedupConfig supplies the domain blocklist.
type DedupConfig struct {
	Blocklist           []string `mapstructure:"blocklist"`
	BlocklistPatterns   []string `mapstructure:"blocklist_patterns"`
	SimilarityThreshold int      `mapstructure:"similarity_threshold"`
}

// MonitorConfig tunes change detection.
type MonitorConfig struct {
	Schedule       string  `mapstructure:"schedule"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
}

// DatabaseConfig selects the store backend. An empty DSN selects the
// in-memory store.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// MetricsConfig controls the Prometheus listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from an optional file path, HIREWATCH_*
// environment variables, and defaults, in that order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HIREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("crawler.user_agent", "hirewatch-bot")
	v.SetDefault("crawler.workers", 4)
	v.SetDefault("crawler.max_pages_per_domain", 5)
	v.SetDefault("crawler.request_timeout_seconds", 15)
	v.SetDefault("crawler.max_body_bytes", int64(4<<20))

	v.SetDefault("rate_limit.min_delay_seconds", 2.0)
	v.SetDefault("rate_limit.max_delay_seconds", 5.0)
	v.SetDefault("rate_limit.requests_per_domain", 20)
	v.SetDefault("rate_limit.window_seconds", 3600)
	v.SetDefault("rate_limit.backoff_multiplier", 2.0)
	v.SetDefault("rate_limit.max_backoff_seconds", 300)

	v.SetDefault("robots.ttl_hours", 24)
	v.SetDefault("robots.fetch_timeout_seconds", 10)

	v.SetDefault("dedup.similarity_threshold", 85)

	v.SetDefault("monitor.schedule", "0 */6 * * *")
	v.SetDefault("monitor.score_threshold", 10.0)

	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
}

// Validate rejects settings that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.RateLimit.MinDelaySec < 0 {
		return fmt.Errorf("rate_limit.min_delay_seconds must be >= 0")
	}
	if c.RateLimit.MaxDelaySec < c.RateLimit.MinDelaySec {
		return fmt.Errorf("rate_limit.max_delay_seconds must be >= min_delay_seconds")
	}
	if c.RateLimit.RequestsPerDomain <= 0 {
		return fmt.Errorf("rate_limit.requests_per_domain must be > 0")
	}
	if c.RateLimit.BackoffMultiplier < 1 {
		return fmt.Errorf("rate_limit.backoff_multiplier must be >= 1")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0")
	}
	if c.Crawler.MaxPagesPerDomain <= 0 {
		return fmt.Errorf("crawler.max_pages_per_domain must be > 0")
	}
	if c.Dedup.SimilarityThreshold < 0 || c.Dedup.SimilarityThreshold > 100 {
		return fmt.Errorf("dedup.similarity_threshold must be between 0 and 100")
	}
	return nil
}
