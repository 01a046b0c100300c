package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/hirewatch/internal/clock"
)

// Domain extracts the lowercased host of a URL with any leading www. and
// port stripped. This is the key politeness state is tracked on.
func Domain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}

// Scraper combines a gated fetcher with the extraction pipeline to turn a
// URL into a snapshot.
type Scraper struct {
	fetcher  Fetcher
	pipeline Pipeline
	clk      clock.Clock
	logger   *zap.Logger
}

// NewScraper builds a Scraper.
func NewScraper(fetcher Fetcher, pipeline Pipeline, clk clock.Clock, logger *zap.Logger) *Scraper {
	return &Scraper{fetcher: fetcher, pipeline: pipeline, clk: clk, logger: logger}
}

// ScrapePage fetches a URL and extracts its snapshot. A robots disallow
// surfaces as ErrRobotsBlocked; a failed exchange surfaces as an error
// wrapping the transport cause when one exists.
func (s *Scraper) ScrapePage(ctx context.Context, rawURL string) (*PageSnapshot, error) {
	result, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case FetchBlocked:
		return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsBlocked)
	case FetchFailed:
		if result.Err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, result.Err)
		}
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, result.StatusCode)
	}

	domain, err := Domain(rawURL)
	if err != nil {
		return nil, err
	}

	snap, err := s.pipeline.Snapshot(rawURL, domain, result.Body, result.StatusCode, s.clk.Now())
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rawURL, err)
	}
	s.logger.Debug("page scraped",
		zap.String("url", rawURL),
		zap.String("page_type", string(snap.PageType)),
		zap.Int("status", snap.StatusCode))
	return snap, nil
}
