// Package crawl defines core types shared across subsystems and the
// crawl run orchestration built on them.
package crawl

import (
	"time"
)

// DomainStatus represents the lifecycle state of a discovered domain.
type DomainStatus string

// Domain status values persisted in the store.
const (
	DomainStatusPending DomainStatus = "pending"
	DomainStatusScraped DomainStatus = "scraped"
	DomainStatusBlocked DomainStatus = "blocked"
	DomainStatusError   DomainStatus = "error"
)

// DomainRecord is persisted for each canonical root domain.
type DomainRecord struct {
	Domain       string       `json:"domain"`
	Source       string       `json:"source,omitempty"`
	Status       DomainStatus `json:"status"`
	DiscoveredAt time.Time    `json:"discovered_at"`
}

// PageType classifies what a fetched page appears to be.
type PageType string

// Page type values produced by the extraction pipeline.
const (
	PageTypeCareers     PageType = "careers"
	PageTypeAbout       PageType = "about"
	PageTypeTeam        PageType = "team"
	PageTypeEngineering PageType = "engineering"
	PageTypeOther       PageType = "other"
)

// PageSnapshot is the immutable record of one fetch-and-extract pass over a
// single URL. A repeat fetch produces a new snapshot; old ones are never
// mutated.
type PageSnapshot struct {
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	FetchedAt   time.Time `json:"fetched_at"`
	StatusCode  int       `json:"status_code"`
	PageType    PageType  `json:"page_type"`

	JobTitles        []string `json:"job_titles"`
	TechKeywords     []string `json:"tech_keywords"`
	HiringSignals    []string `json:"hiring_signals"`
	RemoteIndicators []string `json:"remote_indicators"`
	ContactEmails    []string `json:"contact_emails"`

	HasApplyButton bool `json:"has_apply_button"`
	HasJobListings bool `json:"has_job_listings"`
}

// CompanyProfile aggregates everything seen for a domain across snapshots.
// It is mutated only through profile.Merge.
type CompanyProfile struct {
	Domain     string `json:"domain"`
	Name       string `json:"name"`
	CareersURL string `json:"careers_url,omitempty"`

	JobTitles        []string `json:"job_titles"`
	TechKeywords     []string `json:"tech_keywords"`
	HiringSignals    []string `json:"hiring_signals"`
	RemoteIndicators []string `json:"remote_indicators"`
	ContactEmails    []string `json:"contact_emails"`

	PagesScraped      int       `json:"pages_scraped"`
	HasActiveListings bool      `json:"has_active_listings"`
	FirstSeen         time.Time `json:"first_seen"`
	LastUpdated       time.Time `json:"last_updated"`
}

// ChangeKind tags what a detected change represents.
type ChangeKind string

// Change kinds emitted by the monitor.
const (
	ChangeContent        ChangeKind = "content_change"
	ChangeNewListing     ChangeKind = "new_listing"
	ChangeRemovedListing ChangeKind = "removed_listing"
	ChangeNewSignal      ChangeKind = "new_signal"
	ChangeScore          ChangeKind = "score_change"
)

// Change is an append-only record of a detected difference between two
// snapshots (or two score records) for a domain.
type Change struct {
	ID         string     `json:"id"`
	Domain     string     `json:"domain"`
	URL        string     `json:"url,omitempty"`
	Kind       ChangeKind `json:"kind"`
	OldValue   string     `json:"old_value,omitempty"`
	NewValue   string     `json:"new_value,omitempty"`
	DetectedAt time.Time  `json:"detected_at"`
}

// ScoreRecord is one output row of the external scoring engine. Only read
// here, never written.
type ScoreRecord struct {
	Domain     string    `json:"domain"`
	Total      float64   `json:"total_score"`
	ComputedAt time.Time `json:"computed_at"`
}

// FetchOutcome classifies the result of a gated fetch.
type FetchOutcome string

// Fetch outcomes returned by a Fetcher implementation.
const (
	FetchOK      FetchOutcome = "ok"
	FetchBlocked FetchOutcome = "blocked"
	FetchFailed  FetchOutcome = "failed"
)

// FetchResult is what a Fetcher returns for one URL. Body and StatusCode
// are meaningful only when Outcome is FetchOK; Err carries the underlying
// transport error for failed fetches.
type FetchResult struct {
	URL        string
	Outcome    FetchOutcome
	StatusCode int
	Body       []byte
	Err        error
}
