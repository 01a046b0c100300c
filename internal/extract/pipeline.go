// Package extract turns raw page content into structured snapshots. Every
// extractor is a pure function over the page text or markup; pattern
// tables are compiled once at construction so a single Pipeline can be
// shared by concurrent workers without locks.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

// Options configures a Pipeline. Zero values select the built-in keyword
// table and the SHA-256 hasher.
type Options struct {
	Keywords map[string]KeywordInfo
	Hasher   crawl.Hasher
}

// KeywordInfo is one entry of the tech keyword table.
type KeywordInfo struct {
	Weight  float64
	Aliases []string
}

// Pipeline implements crawl.Pipeline.
type Pipeline struct {
	keywords    []keywordEntry
	hasher      crawl.Hasher
	applyRe     *regexp.Regexp
	listClassRe *regexp.Regexp
}

type keywordEntry struct {
	token  string
	weight float64
	re     *regexp.Regexp
}

// NewPipeline compiles all pattern tables.
func NewPipeline(opts Options) (*Pipeline, error) {
	table := opts.Keywords
	if table == nil {
		table = DefaultKeywords()
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = contentHasher{}
	}

	p := &Pipeline{
		hasher:      hasher,
		applyRe:     regexp.MustCompile(`(?i)apply`),
		listClassRe: regexp.MustCompile(`(?i)job|position|opening`),
	}
	if err := p.compileKeywords(table); err != nil {
		return nil, err
	}
	return p, nil
}

// Snapshot fetches nothing: it classifies and extracts from body as
// fetched, producing the immutable snapshot record for one page visit.
func (p *Pipeline) Snapshot(url, domain string, body []byte, statusCode int, fetchedAt time.Time) (*crawl.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	html := string(body)

	// JSON-LD lives in script tags; pull titles before scripts are
	// stripped for the text pass.
	titles := p.JobTitles(html, doc)

	doc.Find("script, style, noscript").Remove()
	text := normalizeSpace(doc.Text())

	hash, err := p.hasher.Hash(body)
	if err != nil {
		return nil, fmt.Errorf("hash content: %w", err)
	}

	snap := &crawl.PageSnapshot{
		URL:              url,
		Domain:           domain,
		Title:            title,
		ContentHash:      hash,
		FetchedAt:        fetchedAt,
		StatusCode:       statusCode,
		PageType:         p.PageType(url, text),
		JobTitles:        titles,
		TechKeywords:     p.TechKeywords(text),
		HiringSignals:    p.HiringSignals(text),
		RemoteIndicators: p.RemoteIndicators(text),
		ContactEmails:    p.ContactEmails(text),
		HasApplyButton:   p.hasApplyAffordance(doc),
		HasJobListings:   p.hasListingStructure(doc, titles),
	}
	return snap, nil
}

// hasApplyAffordance reports whether any link or button invites an
// application.
func (p *Pipeline) hasApplyAffordance(doc *goquery.Document) bool {
	found := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if p.applyRe.MatchString(s.Text()) {
			found = true
			return false
		}
		return true
	})
	return found
}

// hasListingStructure is true when the page shows more than one extracted
// title or carries listing-shaped markup.
func (p *Pipeline) hasListingStructure(doc *goquery.Document, titles []string) bool {
	if len(titles) > 1 {
		return true
	}
	found := false
	doc.Find("div[class], ul[class], section[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if class, ok := s.Attr("class"); ok && p.listClassRe.MatchString(class) {
			found = true
			return false
		}
		return true
	})
	return found
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
