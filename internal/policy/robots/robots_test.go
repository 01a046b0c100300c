package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
)

func newTestCache(t *testing.T, cfg Config) (*Cache, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Unix(1700000000, 0).UTC())
	return New(cfg, clk, zap.NewNop()), clk
}

func robotsServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsAllowedDisallowAndAllowPrecedence(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, `
User-agent: *
Allow: /public/
Disallow: /private/
Disallow: /public/internal
`, nil)
	cache, _ := newTestCache(t, Config{})
	ctx := context.Background()

	require.False(t, cache.IsAllowed(ctx, srv.URL+"/private/page"))
	require.True(t, cache.IsAllowed(ctx, srv.URL+"/open/page"))
	// Allow is checked first, so it wins even where a disallow also matches.
	require.True(t, cache.IsAllowed(ctx, srv.URL+"/public/internal"))
}

func TestIsAllowedPrefersOwnAgentBlock(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, `
User-agent: hirewatch-bot
Disallow: /careers/

User-agent: *
Disallow: /
`, nil)
	cache, _ := newTestCache(t, Config{UserAgent: "hirewatch-bot"})
	ctx := context.Background()

	require.False(t, cache.IsAllowed(ctx, srv.URL+"/careers/eng"))
	// The wildcard block still applies where the own block is silent.
	require.False(t, cache.IsAllowed(ctx, srv.URL+"/anything"))
}

func TestIsAllowedFailsOpenOn404(t *testing.T) {
	srv := robotsServer(t, http.StatusNotFound, "not here", nil)
	cache, _ := newTestCache(t, Config{})
	require.True(t, cache.IsAllowed(context.Background(), srv.URL+"/private/page"))
}

func TestIsAllowedFailsOpenOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cache, _ := newTestCache(t, Config{FetchTimeout: time.Second})
	require.True(t, cache.IsAllowed(context.Background(), url+"/page"))
}

func TestRulesCachedWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /x/", &hits)
	cache, clk := newTestCache(t, Config{TTL: 24 * time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := cache.Rules(ctx, srv.URL+"/page")
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), hits.Load(), "fresh entries should be served from cache")

	clk.Advance(25 * time.Hour)
	_, err := cache.Rules(ctx, srv.URL+"/page")
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load(), "expired entries should be refetched")
}

func TestClearDomainForcesRefetch(t *testing.T) {
	var hits atomic.Int32
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow:", &hits)
	cache, _ := newTestCache(t, Config{})
	ctx := context.Background()

	_, err := cache.Rules(ctx, srv.URL+"/a")
	require.NoError(t, err)

	domain, err := domainOf(srv.URL)
	require.NoError(t, err)
	cache.ClearDomain(domain)

	_, err = cache.Rules(ctx, srv.URL+"/b")
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestCrawlDelay(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, `
User-agent: hirewatch-bot
Crawl-delay: 7
Disallow: /x/

User-agent: *
Crawl-delay: 2
Disallow: /y/
`, nil)
	cache, _ := newTestCache(t, Config{UserAgent: "hirewatch-bot"})

	delay, ok := cache.CrawlDelay(context.Background(), srv.URL+"/page")
	require.True(t, ok)
	require.Equal(t, 7*time.Second, delay)
}

func TestCrawlDelayAbsent(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /x/", nil)
	cache, _ := newTestCache(t, Config{})

	_, ok := cache.CrawlDelay(context.Background(), srv.URL+"/page")
	require.False(t, ok)
}
