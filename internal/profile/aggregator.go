// Package profile maintains the cumulative per-company view built from
// page snapshots.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/crawl"
)

// Merge folds one snapshot into a profile. Set-valued fields take the
// union, so merging any permutation of the same snapshots yields the same
// sets. The careers URL is sticky: first non-empty wins, and only a
// careers page can claim it. HasActiveListings never transitions back to
// false.
func Merge(p *crawl.CompanyProfile, snap *crawl.PageSnapshot, now time.Time) {
	p.JobTitles = union(p.JobTitles, snap.JobTitles)
	p.TechKeywords = union(p.TechKeywords, snap.TechKeywords)
	p.HiringSignals = union(p.HiringSignals, snap.HiringSignals)
	p.RemoteIndicators = union(p.RemoteIndicators, snap.RemoteIndicators)
	p.ContactEmails = union(p.ContactEmails, snap.ContactEmails)

	if p.CareersURL == "" && snap.PageType == crawl.PageTypeCareers {
		p.CareersURL = snap.URL
	}
	if snap.HasJobListings {
		p.HasActiveListings = true
	}
	if p.Name == "" && snap.Title != "" {
		name, _, _ := strings.Cut(snap.Title, "|")
		p.Name = strings.TrimSpace(name)
	}

	p.PagesScraped++
	if p.FirstSeen.IsZero() {
		p.FirstSeen = now
	}
	p.LastUpdated = now
}

// union returns the sorted set union of two string slices.
func union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Aggregator loads, merges and persists profiles through the store. One
// profile per canonical domain, created lazily on the first snapshot.
type Aggregator struct {
	store  crawl.Store
	clk    clock.Clock
	logger *zap.Logger
}

// NewAggregator builds an Aggregator.
func NewAggregator(store crawl.Store, clk clock.Clock, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, clk: clk, logger: logger}
}

// Apply merges a snapshot into the domain's stored profile, creating the
// profile if this is the domain's first snapshot. Callers must serialize
// Apply per domain; the store has no transactional isolation.
func (a *Aggregator) Apply(ctx context.Context, snap *crawl.PageSnapshot) (*crawl.CompanyProfile, error) {
	prof, err := a.store.GetProfile(ctx, snap.Domain)
	switch {
	case errors.Is(err, crawl.ErrNotFound):
		prof = &crawl.CompanyProfile{Domain: snap.Domain}
	case err != nil:
		return nil, fmt.Errorf("load profile %s: %w", snap.Domain, err)
	}

	Merge(prof, snap, a.clk.Now())

	if err := a.store.UpsertProfile(ctx, prof); err != nil {
		return nil, fmt.Errorf("upsert profile %s: %w", snap.Domain, err)
	}
	a.logger.Debug("profile merged",
		zap.String("domain", snap.Domain),
		zap.Int("pages_scraped", prof.PagesScraped))
	return prof, nil
}
