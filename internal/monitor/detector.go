// Package monitor diffs fresh snapshots against stored ones and emits
// typed change events.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/crawl"
	"github.com/talentsignal/hirewatch/internal/metrics"
)

// DefaultScoreThreshold is the minimum absolute score movement (0-100
// scale) reported as a score_change.
const DefaultScoreThreshold = 10

// PageScraper produces a fresh snapshot for a URL. crawl.Scraper
// satisfies this.
type PageScraper interface {
	ScrapePage(ctx context.Context, url string) (*crawl.PageSnapshot, error)
}

// Detector compares snapshots over time. It holds no comparison state;
// every detection reads the store fresh.
type Detector struct {
	store          crawl.Store
	scraper        PageScraper
	clk            clock.Clock
	logger         *zap.Logger
	scoreThreshold float64
}

// New builds a Detector. threshold <= 0 selects DefaultScoreThreshold.
func New(store crawl.Store, scraper PageScraper, clk clock.Clock, logger *zap.Logger, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &Detector{
		store:          store,
		scraper:        scraper,
		clk:            clk,
		logger:         logger,
		scoreThreshold: threshold,
	}
}

func (d *Detector) newChange(domain, url string, kind crawl.ChangeKind, oldValue, newValue string) crawl.Change {
	metrics.IncChangeDetected(string(kind))
	return crawl.Change{
		ID:         uuid.NewString(),
		Domain:     domain,
		URL:        url,
		Kind:       kind,
		OldValue:   oldValue,
		NewValue:   newValue,
		DetectedAt: d.clk.Now(),
	}
}

// DetectPage compares the stored snapshot of url against a freshly
// fetched one. A first visit (no stored snapshot) yields no changes. The
// fresh snapshot is persisted after the diff; prior snapshots are never
// touched. The load and the fetch are two separate steps with no lock
// between them, so concurrent writers to the same URL can move the
// baseline underneath a detection; serialize per domain if that matters.
func (d *Detector) DetectPage(ctx context.Context, url string) ([]crawl.Change, error) {
	stored, err := d.store.GetSnapshot(ctx, url)
	if errors.Is(err, crawl.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", url, err)
	}

	fresh, err := d.scraper.ScrapePage(ctx, url)
	if err != nil {
		if errors.Is(err, crawl.ErrRobotsBlocked) {
			d.logger.Info("detection skipped, now disallowed", zap.String("url", url))
			return nil, nil
		}
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}

	var changes []crawl.Change
	domain := fresh.Domain

	if stored.ContentHash != fresh.ContentHash {
		changes = append(changes, d.newChange(domain, url, crawl.ChangeContent,
			stored.ContentHash, fresh.ContentHash))
	}

	oldTitles := toSet(stored.JobTitles)
	newTitles := toSet(fresh.JobTitles)
	for _, title := range fresh.JobTitles {
		if _, ok := oldTitles[title]; !ok {
			changes = append(changes, d.newChange(domain, url, crawl.ChangeNewListing, "", title))
		}
	}
	for _, title := range stored.JobTitles {
		if _, ok := newTitles[title]; !ok {
			changes = append(changes, d.newChange(domain, url, crawl.ChangeRemovedListing, title, ""))
		}
	}

	oldSignals := toSet(stored.HiringSignals)
	for _, signal := range fresh.HiringSignals {
		if _, ok := oldSignals[signal]; !ok {
			changes = append(changes, d.newChange(domain, url, crawl.ChangeNewSignal, "", signal))
		}
	}

	if err := d.store.PutSnapshot(ctx, fresh); err != nil {
		return changes, fmt.Errorf("store snapshot %s: %w", url, err)
	}
	return changes, nil
}

// DetectScore compares the two most recent score records for a domain and
// reports a score_change when they moved by at least the threshold.
func (d *Detector) DetectScore(ctx context.Context, domain string) (*crawl.Change, error) {
	scores, err := d.store.RecentScores(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load scores %s: %w", domain, err)
	}
	if len(scores) < 2 {
		return nil, nil
	}

	latest, previous := scores[0], scores[1]
	diff := latest.Total - previous.Total
	if diff < 0 {
		diff = -diff
	}
	if diff < d.scoreThreshold {
		return nil, nil
	}
	change := d.newChange(domain, "", crawl.ChangeScore,
		formatScore(previous.Total), formatScore(latest.Total))
	return &change, nil
}

// DetectDomain runs page detection on the domain's primary URL (the
// profile's careers URL when known, else the homepage) plus the score
// check, and appends every change to the log.
func (d *Detector) DetectDomain(ctx context.Context, domain string) ([]crawl.Change, error) {
	url := "https://" + domain
	prof, err := d.store.GetProfile(ctx, domain)
	if err != nil && !errors.Is(err, crawl.ErrNotFound) {
		return nil, fmt.Errorf("load profile %s: %w", domain, err)
	}
	if prof != nil && prof.CareersURL != "" {
		url = prof.CareersURL
	}

	changes, err := d.DetectPage(ctx, url)
	if err != nil {
		return nil, err
	}

	scoreChange, err := d.DetectScore(ctx, domain)
	if err != nil {
		return nil, err
	}
	if scoreChange != nil {
		changes = append(changes, *scoreChange)
	}

	for i := range changes {
		if err := d.store.AppendChange(ctx, &changes[i]); err != nil {
			return changes, fmt.Errorf("append change: %w", err)
		}
	}
	return changes, nil
}

// Run walks a domain list sequentially, skipping domains that error so a
// single bad domain never halts the rest.
func (d *Detector) Run(ctx context.Context, domains []string) ([]crawl.Change, error) {
	var all []crawl.Change
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		changes, err := d.DetectDomain(ctx, domain)
		if err != nil {
			d.logger.Warn("change detection failed",
				zap.String("domain", domain), zap.Error(err))
			continue
		}
		if len(changes) > 0 {
			d.logger.Info("changes detected",
				zap.String("domain", domain), zap.Int("count", len(changes)))
		}
		all = append(all, changes...)
	}
	return all, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
