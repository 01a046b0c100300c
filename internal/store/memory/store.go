// Package memory provides an in-memory Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

// Store keeps everything in mutex-guarded maps. Snapshots are stored
// latest-per-URL; the change log is append-only.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]crawl.PageSnapshot
	profiles  map[string]crawl.CompanyProfile
	domains   map[string]crawl.DomainRecord
	changes   []crawl.Change
	scores    map[string][]crawl.ScoreRecord
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]crawl.PageSnapshot),
		profiles:  make(map[string]crawl.CompanyProfile),
		domains:   make(map[string]crawl.DomainRecord),
		scores:    make(map[string][]crawl.ScoreRecord),
	}
}

// GetSnapshot returns the latest snapshot stored for a URL.
func (s *Store) GetSnapshot(_ context.Context, url string) (*crawl.PageSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[url]
	if !ok {
		return nil, crawl.ErrNotFound
	}
	return &snap, nil
}

// PutSnapshot stores a snapshot as the latest for its URL.
func (s *Store) PutSnapshot(_ context.Context, snap *crawl.PageSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.URL] = *snap
	return nil
}

// GetProfile returns the profile for a domain.
func (s *Store) GetProfile(_ context.Context, domain string) (*crawl.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prof, ok := s.profiles[domain]
	if !ok {
		return nil, crawl.ErrNotFound
	}
	return &prof, nil
}

// UpsertProfile stores a profile keyed by domain.
func (s *Store) UpsertProfile(_ context.Context, profile *crawl.CompanyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Domain] = *profile
	return nil
}

// UpsertDomain stores a domain record.
func (s *Store) UpsertDomain(_ context.Context, rec *crawl.DomainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains[rec.Domain] = *rec
	return nil
}

// AppendChange appends to the change log.
func (s *Store) AppendChange(_ context.Context, change *crawl.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, *change)
	return nil
}

// RecentScores returns the score records for a domain, most recent first.
func (s *Store) RecentScores(_ context.Context, domain string) ([]crawl.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := append([]crawl.ScoreRecord(nil), s.scores[domain]...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].ComputedAt.After(records[j].ComputedAt)
	})
	return records, nil
}

// AddScore seeds a score record; used by tests and local development to
// stand in for the external scoring engine.
func (s *Store) AddScore(rec crawl.ScoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[rec.Domain] = append(s.scores[rec.Domain], rec)
}

// Changes returns a copy of the change log in append order.
func (s *Store) Changes() []crawl.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crawl.Change(nil), s.changes...)
}

// Domains returns the stored domain records, sorted by domain.
func (s *Store) Domains() []crawl.DomainRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawl.DomainRecord, 0, len(s.domains))
	for _, rec := range s.domains {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
