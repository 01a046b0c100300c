// Package robots fetches, parses and caches robots.txt per domain, and
// answers allow/disallow and crawl-delay queries for the crawler's agent.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/metrics"
)

const maxRobotsBytes = 1 << 20

// RuleSet holds the directives of one user-agent block.
type RuleSet struct {
	Agent      string
	Allowed    []string
	Disallowed []string
	CrawlDelay time.Duration
	HasDelay   bool
}

// Entry is the cached robots.txt state for one domain. Valid only within
// the cache TTL; expired entries are refetched, never reused.
type Entry struct {
	Rules      map[string]RuleSet // keyed by lowercased agent token
	FetchedAt  time.Time
	StatusCode int // 0 means the fetch itself failed
}

// Config tunes the cache.
type Config struct {
	UserAgent    string
	TTL          time.Duration
	FetchTimeout time.Duration
}

// Cache answers robots.txt queries, fetching on miss or expiry. The policy
// fails open: an unreachable or absent robots.txt never blocks a crawl.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	client    *http.Client
	userAgent string
	ttl       time.Duration
	clk       clock.Clock
	logger    *zap.Logger
}

// New builds a Cache with the given crawler user agent.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) *Cache {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hirewatch-bot"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Cache{
		entries:   make(map[string]*Entry),
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		userAgent: cfg.UserAgent,
		ttl:       cfg.TTL,
		clk:       clk,
		logger:    logger,
	}
}

func domainOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}

func robotsURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/robots.txt", scheme, parsed.Host), nil
}

// Rules returns the cached entry for the URL's domain, fetching robots.txt
// when there is no entry or the cached one has expired.
func (c *Cache) Rules(ctx context.Context, rawURL string) (*Entry, error) {
	domain, err := domainOf(rawURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry, ok := c.entries[domain]
	if ok && c.clk.Now().Sub(entry.FetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry, nil
	}
	c.mu.Unlock()

	entry = c.fetch(ctx, rawURL)

	c.mu.Lock()
	c.entries[domain] = entry
	c.mu.Unlock()
	return entry, nil
}

// fetch retrieves and parses robots.txt. Transport failures yield an entry
// with StatusCode 0 and no rules.
func (c *Cache) fetch(ctx context.Context, rawURL string) *Entry {
	entry := &Entry{
		Rules:     map[string]RuleSet{},
		FetchedAt: c.clk.Now(),
	}

	target, err := robotsURL(rawURL)
	if err != nil {
		return entry
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return entry
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots fetch failed; failing open",
			zap.String("url", target), zap.Error(err))
		return entry
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close robots body", zap.Error(cerr))
		}
	}()

	entry.StatusCode = resp.StatusCode
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		c.logger.Debug("read robots body", zap.String("url", target), zap.Error(err))
		return entry
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		entry.Rules = Parse(string(body))
	}
	return entry
}

// IsAllowed reports whether the crawler may fetch the URL's path. Missing
// or unreachable robots.txt (status 0 or 404) always allows. Within a
// matching agent block, allow patterns are checked before disallow
// patterns, so an allow wins even when a disallow would also match.
func (c *Cache) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed := c.isAllowed(ctx, rawURL)
	metrics.IncRobotsDecision(allowed)
	return allowed
}

func (c *Cache) isAllowed(ctx context.Context, rawURL string) bool {
	entry, err := c.Rules(ctx, rawURL)
	if err != nil {
		return false // unparseable URL, nothing to fetch
	}
	if entry.StatusCode == 0 || entry.StatusCode == http.StatusNotFound {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}

	for _, agent := range []string{strings.ToLower(c.userAgent), "*"} {
		rule, ok := entry.Rules[agent]
		if !ok {
			continue
		}
		for _, pattern := range rule.Allowed {
			if MatchPath(pattern, path) {
				return true
			}
		}
		for _, pattern := range rule.Disallowed {
			if MatchPath(pattern, path) {
				return false
			}
		}
	}
	return true
}

// CrawlDelay returns the crawl-delay directive applying to the URL's
// domain, preferring the crawler's own agent block over the wildcard.
func (c *Cache) CrawlDelay(ctx context.Context, rawURL string) (time.Duration, bool) {
	entry, err := c.Rules(ctx, rawURL)
	if err != nil {
		return 0, false
	}
	for _, agent := range []string{strings.ToLower(c.userAgent), "*"} {
		if rule, ok := entry.Rules[agent]; ok && rule.HasDelay {
			return rule.CrawlDelay, true
		}
	}
	return 0, false
}

// ClearDomain drops the cached entry for one domain.
func (c *Cache) ClearDomain(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, strings.ToLower(domain))
}
