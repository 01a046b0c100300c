package crawl

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/dedup"
)

// ProfileApplier folds a snapshot into the owning company profile.
// profile.Aggregator satisfies this.
type ProfileApplier interface {
	Apply(ctx context.Context, snap *PageSnapshot) (*CompanyProfile, error)
}

// defaultCareersPaths are probed in order until one yields a careers page.
var defaultCareersPaths = []string{
	"/careers",
	"/jobs",
	"/work-with-us",
	"/join-us",
	"/about/careers",
	"/company/careers",
}

// RunnerConfig tunes a crawl run.
type RunnerConfig struct {
	Workers           int
	MaxPagesPerDomain int
	CareersPaths      []string
	Source            string
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxPagesPerDomain <= 0 {
		c.MaxPagesPerDomain = 5
	}
	if len(c.CareersPaths) == 0 {
		c.CareersPaths = defaultCareersPaths
	}
	if c.Source == "" {
		c.Source = "seed"
	}
	return c
}

// Summary tallies the outcome of one crawl run.
type Summary struct {
	Dedup   dedup.BatchStats
	Domains int
	Scraped int
	Blocked int
	Errored int
	Pages   int
}

// Runner deduplicates seed domains and crawls each one through a worker
// pool. A domain is owned by exactly one worker for its whole visit, so
// all requests to it are serialized; cross-domain politeness is the rate
// limiter's job.
type Runner struct {
	store    Store
	scraper  *Scraper
	profiles ProfileApplier
	dd       *dedup.Deduplicator
	clk      clock.Clock
	logger   *zap.Logger
	cfg      RunnerConfig
}

// NewRunner builds a Runner.
func NewRunner(store Store, scraper *Scraper, profiles ProfileApplier, dd *dedup.Deduplicator, clk clock.Clock, logger *zap.Logger, cfg RunnerConfig) *Runner {
	return &Runner{
		store:    store,
		scraper:  scraper,
		profiles: profiles,
		dd:       dd,
		clk:      clk,
		logger:   logger,
		cfg:      cfg.withDefaults(),
	}
}

type domainOutcome struct {
	status DomainStatus
	pages  int
}

// Run deduplicates the seeds and crawls every newly accepted domain,
// returning per-outcome counts. Already-seen and blocklisted seeds are
// counted but not visited.
func (r *Runner) Run(ctx context.Context, seeds []string) (Summary, error) {
	var summary Summary
	var accepted []string

	for _, seed := range seeds {
		switch r.dd.Add(seed) {
		case dedup.Added:
			summary.Dedup.Added++
			accepted = append(accepted, dedup.Canonicalize(seed).Root)
		case dedup.Blocked:
			summary.Dedup.Blocked++
		case dedup.Duplicate:
			summary.Dedup.Duplicate++
		default:
			summary.Dedup.Invalid++
		}
	}
	summary.Domains = len(accepted)
	r.logger.Info("crawl run starting",
		zap.Int("seeds", len(seeds)),
		zap.Int("domains", len(accepted)),
		zap.Int("workers", r.cfg.Workers))

	jobs := make(chan string)
	results := make(chan domainOutcome, len(accepted))
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for domain := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- r.crawlDomain(ctx, domain)
			}
		}()
	}

	for _, domain := range accepted {
		jobs <- domain
	}
	close(jobs)
	wg.Wait()
	close(results)

	for outcome := range results {
		summary.Pages += outcome.pages
		switch outcome.status {
		case DomainStatusScraped:
			summary.Scraped++
		case DomainStatusBlocked:
			summary.Blocked++
		default:
			summary.Errored++
		}
	}
	r.logger.Info("crawl run finished",
		zap.Int("scraped", summary.Scraped),
		zap.Int("blocked", summary.Blocked),
		zap.Int("errored", summary.Errored),
		zap.Int("pages", summary.Pages))
	return summary, ctx.Err()
}

// crawlDomain visits one domain: a careers-path probe, then the homepage
// and about page, persisting every successful snapshot and folding it into
// the profile. The persisted-page count is bounded by MaxPagesPerDomain.
func (r *Runner) crawlDomain(ctx context.Context, domain string) domainOutcome {
	base := "https://" + domain
	var pages, blocked int

	careersFound := false
	for _, path := range r.cfg.CareersPaths {
		if careersFound || pages >= r.cfg.MaxPagesPerDomain || ctx.Err() != nil {
			break
		}
		snap := r.scrapeOne(ctx, base+path, &pages, &blocked)
		if snap != nil && snap.PageType == PageTypeCareers {
			careersFound = true
		}
	}

	for _, target := range []string{base, base + "/about"} {
		if pages >= r.cfg.MaxPagesPerDomain || ctx.Err() != nil {
			break
		}
		r.scrapeOne(ctx, target, &pages, &blocked)
	}

	status := DomainStatusError
	switch {
	case pages > 0:
		status = DomainStatusScraped
	case blocked > 0:
		status = DomainStatusBlocked
	}

	rec := &DomainRecord{
		Domain:       domain,
		Source:       r.cfg.Source,
		Status:       status,
		DiscoveredAt: r.clk.Now(),
	}
	if err := r.store.UpsertDomain(ctx, rec); err != nil {
		r.logger.Warn("upsert domain failed", zap.String("domain", domain), zap.Error(err))
	}
	r.logger.Info("domain crawled",
		zap.String("domain", domain),
		zap.String("status", string(status)),
		zap.Int("pages", pages))
	return domainOutcome{status: status, pages: pages}
}

// scrapeOne fetches one URL and, for a 2xx page, persists the snapshot and
// merges it into the profile. Non-2xx pages (probe misses) are dropped.
func (r *Runner) scrapeOne(ctx context.Context, rawURL string, pages, blocked *int) *PageSnapshot {
	snap, err := r.scraper.ScrapePage(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrRobotsBlocked) {
			*blocked++
			return nil
		}
		if ctx.Err() == nil {
			r.logger.Warn("page scrape failed", zap.String("url", rawURL), zap.Error(err))
		}
		return nil
	}
	if snap.StatusCode < 200 || snap.StatusCode >= 300 {
		return nil
	}

	if err := r.store.PutSnapshot(ctx, snap); err != nil {
		r.logger.Warn("store snapshot failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	if _, err := r.profiles.Apply(ctx, snap); err != nil {
		r.logger.Warn("profile merge failed", zap.String("url", rawURL), zap.Error(err))
	}
	*pages++
	return snap
}
