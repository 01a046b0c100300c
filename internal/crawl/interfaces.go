package crawl

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store lookups when no record exists.
var ErrNotFound = errors.New("not found")

// ErrRobotsBlocked marks a fetch that robots.txt disallowed. Not a
// failure: the network call was skipped entirely.
var ErrRobotsBlocked = errors.New("blocked by robots.txt")

// Store persists snapshots, profiles, domains and the change log. Scores
// are written by the external scoring engine; only read here.
type Store interface {
	GetSnapshot(ctx context.Context, url string) (*PageSnapshot, error)
	PutSnapshot(ctx context.Context, snap *PageSnapshot) error
	GetProfile(ctx context.Context, domain string) (*CompanyProfile, error)
	UpsertProfile(ctx context.Context, profile *CompanyProfile) error
	UpsertDomain(ctx context.Context, rec *DomainRecord) error
	AppendChange(ctx context.Context, change *Change) error
	RecentScores(ctx context.Context, domain string) ([]ScoreRecord, error)
}

// Fetcher fetches a URL through the politeness gates and classifies the
// outcome.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResult, error)
}

// Pipeline turns a fetched page into a structured snapshot.
type Pipeline interface {
	Snapshot(url, domain string, body []byte, statusCode int, fetchedAt time.Time) (*PageSnapshot, error)
}

// Hasher computes content digests for snapshots.
type Hasher interface {
	Hash(data []byte) (string, error)
}
