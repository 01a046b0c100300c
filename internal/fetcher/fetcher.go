// Package fetcher performs single HTTP GETs gated by robots.txt policy and
// the per-domain rate limiter, classifying each outcome.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/metrics"
)

// RobotsPolicy answers whether a URL may be fetched.
type RobotsPolicy interface {
	IsAllowed(ctx context.Context, rawURL string) bool
}

// Limiter is the throttle consulted around each request.
type Limiter interface {
	WaitIfNeeded(ctx context.Context, domain string) (time.Duration, error)
	RecordRequest(domain string)
	RecordError(domain string, isRateLimit bool)
}

// Config tunes the HTTP client.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Fetcher implements crawl.Fetcher.
type Fetcher struct {
	client  *http.Client
	robots  RobotsPolicy
	limiter Limiter
	cfg     Config
	logger  *zap.Logger
}

// New builds a Fetcher around the given gates.
func New(cfg Config, robots RobotsPolicy, limiter Limiter, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hirewatch-bot"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		robots:  robots,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// Fetch runs the gated GET sequence: robots check (a disallow skips the
// network entirely and consumes no limiter budget), polite wait, request,
// outcome recording. Non-2xx bodies are returned as-is; interpreting them
// is the caller's job. The returned error is non-nil only for unusable
// URLs or a cancelled context.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawl.FetchResult, error) {
	result := crawl.FetchResult{URL: rawURL}

	domain, err := crawl.Domain(rawURL)
	if err != nil {
		return result, err
	}

	if !f.robots.IsAllowed(ctx, rawURL) {
		f.logger.Info("blocked by robots.txt", zap.String("url", rawURL))
		result.Outcome = crawl.FetchBlocked
		metrics.IncPageFetched(string(result.Outcome))
		return result, nil
	}

	waited, err := f.limiter.WaitIfNeeded(ctx, domain)
	if err != nil {
		return result, fmt.Errorf("rate limit wait: %w", err)
	}
	if waited > 0 {
		f.logger.Debug("rate limiter wait",
			zap.String("domain", domain), zap.Duration("waited", waited))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return result, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		f.limiter.RecordError(domain, false)
		f.logger.Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		result.Outcome = crawl.FetchFailed
		result.Err = err
		metrics.IncPageFetched(string(result.Outcome))
		return result, nil
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	f.limiter.RecordRequest(domain)
	result.StatusCode = resp.StatusCode

	if isRateLimitStatus(resp.StatusCode) {
		f.limiter.RecordError(domain, true)
		f.logger.Warn("rate limited by server",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		result.Outcome = crawl.FetchFailed
		metrics.IncPageFetched(string(result.Outcome))
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		f.limiter.RecordError(domain, false)
		result.Outcome = crawl.FetchFailed
		result.Err = err
		metrics.IncPageFetched(string(result.Outcome))
		return result, nil
	}

	result.Outcome = crawl.FetchOK
	result.Body = body
	metrics.IncPageFetched(string(result.Outcome))
	return result, nil
}

// isRateLimitStatus covers 429 plus the nonstandard throttling statuses a
// few CDNs return.
func isRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == 420 || code == 509
}
