package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/dedup"
	"github.com/talentsignal/hirewatch/internal/extract"
	"github.com/talentsignal/hirewatch/internal/profile"
	"github.com/talentsignal/hirewatch/internal/store/memory"
)

// stubFetcher serves canned results by URL; unknown URLs get a 404 page.
type stubFetcher struct {
	mu      sync.Mutex
	results map[string]crawl.FetchResult
	calls   []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (crawl.FetchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if res, ok := f.results[url]; ok {
		res.URL = url
		return res, nil
	}
	return crawl.FetchResult{URL: url, Outcome: crawl.FetchOK, StatusCode: 404}, nil
}

func (f *stubFetcher) called(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

func okPage(body string) crawl.FetchResult {
	return crawl.FetchResult{Outcome: crawl.FetchOK, StatusCode: 200, Body: []byte(body)}
}

const careersBody = `<html><head><title>Acme | Careers</title></head><body>
<h1>We're hiring</h1>
<ul class="job-openings"><li>Senior Data Engineer</li><li>Platform Developer</li></ul>
<a href="/apply">Apply now</a>
</body></html>`

const homeBody = `<html><head><title>Acme Robotics</title></head><body>
<p>We build robots with Python and Go. Fully remote.</p>
</body></html>`

func newTestRunner(t *testing.T, fetch crawl.Fetcher, store crawl.Store, dd *dedup.Deduplicator, cfg crawl.RunnerConfig) *crawl.Runner {
	t.Helper()
	clk := clock.NewFake(time.Unix(1700000000, 0).UTC())
	logger := zap.NewNop()

	pipeline, err := extract.NewPipeline(extract.Options{})
	require.NoError(t, err)
	scraper := crawl.NewScraper(fetch, pipeline, clk, logger)
	agg := profile.NewAggregator(store, clk, logger)
	return crawl.NewRunner(store, scraper, agg, dd, clk, logger, cfg)
}

func TestRunCrawlsAcceptedDomains(t *testing.T) {
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{
		"https://acme.com/careers": okPage(careersBody),
		"https://acme.com":         okPage(homeBody),
		"https://acme.com/about":   okPage(homeBody),
	}}
	store := memory.New()
	dd := dedup.New(dedup.Config{Blocklist: []string{"spam.com"}})
	r := newTestRunner(t, fetch, store, dd, crawl.RunnerConfig{Workers: 1})

	summary, err := r.Run(context.Background(), []string{"acme.com", "www.acme.com", "spam.com"})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Dedup.Added)
	require.Equal(t, 1, summary.Dedup.Duplicate)
	require.Equal(t, 1, summary.Dedup.Blocked)
	require.Equal(t, 1, summary.Domains)
	require.Equal(t, 1, summary.Scraped)
	require.Equal(t, 3, summary.Pages)

	// The first probe hit a careers page, so later probe paths are skipped.
	require.True(t, fetch.called("https://acme.com/careers"))
	require.False(t, fetch.called("https://acme.com/jobs"))

	snap, err := store.GetSnapshot(context.Background(), "https://acme.com/careers")
	require.NoError(t, err)
	require.Equal(t, crawl.PageTypeCareers, snap.PageType)

	prof, err := store.GetProfile(context.Background(), "acme.com")
	require.NoError(t, err)
	require.Equal(t, 3, prof.PagesScraped)
	require.Equal(t, "https://acme.com/careers", prof.CareersURL)
	require.Contains(t, prof.JobTitles, "Senior Data Engineer")

	domains := store.Domains()
	require.Len(t, domains, 1)
	require.Equal(t, crawl.DomainStatusScraped, domains[0].Status)
	require.Equal(t, "seed", domains[0].Source)
}

func TestRunProbesAllCareersPathsOnMiss(t *testing.T) {
	// Careers only answers under a late probe path.
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{
		"https://acme.com/join-us": okPage(careersBody),
		"https://acme.com":         okPage(homeBody),
	}}
	store := memory.New()
	r := newTestRunner(t, fetch, store, dedup.New(dedup.Config{}), crawl.RunnerConfig{Workers: 1})

	summary, err := r.Run(context.Background(), []string{"acme.com"})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Pages)

	require.True(t, fetch.called("https://acme.com/careers"))
	require.True(t, fetch.called("https://acme.com/jobs"))
	require.True(t, fetch.called("https://acme.com/join-us"))
	// The probe stops once a careers page is found.
	require.False(t, fetch.called("https://acme.com/about/careers"))

	prof, err := store.GetProfile(context.Background(), "acme.com")
	require.NoError(t, err)
	require.Equal(t, "https://acme.com/join-us", prof.CareersURL)
}

func TestRunRobotsBlockedDomain(t *testing.T) {
	blockedResult := crawl.FetchResult{Outcome: crawl.FetchBlocked}
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{}}
	for _, path := range []string{"/careers", "/jobs", "/work-with-us", "/join-us", "/about/careers", "/company/careers", "", "/about"} {
		fetch.results["https://acme.com"+path] = blockedResult
	}
	store := memory.New()
	r := newTestRunner(t, fetch, store, dedup.New(dedup.Config{}), crawl.RunnerConfig{Workers: 1})

	summary, err := r.Run(context.Background(), []string{"acme.com"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Blocked)
	require.Zero(t, summary.Pages)

	domains := store.Domains()
	require.Len(t, domains, 1)
	require.Equal(t, crawl.DomainStatusBlocked, domains[0].Status)
}

func TestRunErroredDomain(t *testing.T) {
	// Unknown URLs 404 everywhere, so nothing is persisted.
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{}}
	store := memory.New()
	r := newTestRunner(t, fetch, store, dedup.New(dedup.Config{}), crawl.RunnerConfig{Workers: 1})

	summary, err := r.Run(context.Background(), []string{"acme.com"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Errored)

	domains := store.Domains()
	require.Len(t, domains, 1)
	require.Equal(t, crawl.DomainStatusError, domains[0].Status)
}

func TestRunHonorsMaxPagesPerDomain(t *testing.T) {
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{
		"https://acme.com/careers": okPage(careersBody),
		"https://acme.com":         okPage(homeBody),
	}}
	store := memory.New()
	r := newTestRunner(t, fetch, store, dedup.New(dedup.Config{}), crawl.RunnerConfig{
		Workers:           1,
		MaxPagesPerDomain: 1,
	})

	summary, err := r.Run(context.Background(), []string{"acme.com"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Pages)
	require.False(t, fetch.called("https://acme.com"), "page budget spent on the careers probe")
}

func TestRunConcurrentDomains(t *testing.T) {
	fetch := &stubFetcher{results: map[string]crawl.FetchResult{
		"https://acme.com/careers":   okPage(careersBody),
		"https://globex.com/careers": okPage(careersBody),
		"https://initech.com":        okPage(homeBody),
	}}
	store := memory.New()
	r := newTestRunner(t, fetch, store, dedup.New(dedup.Config{}), crawl.RunnerConfig{Workers: 3})

	summary, err := r.Run(context.Background(), []string{"acme.com", "globex.com", "initech.com"})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Domains)
	require.Equal(t, 3, summary.Scraped)
	require.Len(t, store.Domains(), 3)
}
