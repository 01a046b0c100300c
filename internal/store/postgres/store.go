// Package postgres provides the Postgres-backed Store implementation.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Store persists snapshots, profiles, domains, changes and scores in
// Postgres. The five string-set fields are stored as jsonb.
type Store struct {
	pool pgxPool
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// GetSnapshot loads the latest snapshot stored for a URL.
func (s *Store) GetSnapshot(ctx context.Context, url string) (*crawl.PageSnapshot, error) {
	query := `
SELECT url, domain, title, content_hash, fetched_at, status_code, page_type,
	job_titles, tech_keywords, hiring_signals, remote_indicators, contact_emails,
	has_apply_button, has_job_listings
FROM page_snapshots
WHERE url = $1`

	var (
		snap crawl.PageSnapshot
		sets [5][]byte
	)
	err := s.pool.QueryRow(ctx, query, url).Scan(
		&snap.URL, &snap.Domain, &snap.Title, &snap.ContentHash,
		&snap.FetchedAt, &snap.StatusCode, &snap.PageType,
		&sets[0], &sets[1], &sets[2], &sets[3], &sets[4],
		&snap.HasApplyButton, &snap.HasJobListings,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, crawl.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	targets := []*[]string{
		&snap.JobTitles, &snap.TechKeywords, &snap.HiringSignals,
		&snap.RemoteIndicators, &snap.ContactEmails,
	}
	for i, raw := range sets {
		if err := unmarshalSet(raw, targets[i]); err != nil {
			return nil, fmt.Errorf("decode snapshot sets: %w", err)
		}
	}
	return &snap, nil
}

// PutSnapshot stores a snapshot as the latest for its URL.
func (s *Store) PutSnapshot(ctx context.Context, snap *crawl.PageSnapshot) error {
	if snap.URL == "" {
		return fmt.Errorf("snapshot url is required")
	}
	sets, err := marshalSets(
		snap.JobTitles, snap.TechKeywords, snap.HiringSignals,
		snap.RemoteIndicators, snap.ContactEmails,
	)
	if err != nil {
		return fmt.Errorf("encode snapshot sets: %w", err)
	}
	query := `
INSERT INTO page_snapshots (
	url, domain, title, content_hash, fetched_at, status_code, page_type,
	job_titles, tech_keywords, hiring_signals, remote_indicators, contact_emails,
	has_apply_button, has_job_listings
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (url) DO UPDATE SET
	domain = EXCLUDED.domain,
	title = EXCLUDED.title,
	content_hash = EXCLUDED.content_hash,
	fetched_at = EXCLUDED.fetched_at,
	status_code = EXCLUDED.status_code,
	page_type = EXCLUDED.page_type,
	job_titles = EXCLUDED.job_titles,
	tech_keywords = EXCLUDED.tech_keywords,
	hiring_signals = EXCLUDED.hiring_signals,
	remote_indicators = EXCLUDED.remote_indicators,
	contact_emails = EXCLUDED.contact_emails,
	has_apply_button = EXCLUDED.has_apply_button,
	has_job_listings = EXCLUDED.has_job_listings`

	args := []any{
		snap.URL, snap.Domain, snap.Title, snap.ContentHash,
		snap.FetchedAt, snap.StatusCode, string(snap.PageType),
		sets[0], sets[1], sets[2], sets[3], sets[4],
		snap.HasApplyButton, snap.HasJobListings,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// GetProfile loads the profile for a domain.
func (s *Store) GetProfile(ctx context.Context, domain string) (*crawl.CompanyProfile, error) {
	query := `
SELECT domain, name, careers_url,
	job_titles, tech_keywords, hiring_signals, remote_indicators, contact_emails,
	pages_scraped, has_active_listings, first_seen, last_updated
FROM company_profiles
WHERE domain = $1`

	var (
		prof crawl.CompanyProfile
		sets [5][]byte
	)
	err := s.pool.QueryRow(ctx, query, domain).Scan(
		&prof.Domain, &prof.Name, &prof.CareersURL,
		&sets[0], &sets[1], &sets[2], &sets[3], &sets[4],
		&prof.PagesScraped, &prof.HasActiveListings,
		&prof.FirstSeen, &prof.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, crawl.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	targets := []*[]string{
		&prof.JobTitles, &prof.TechKeywords, &prof.HiringSignals,
		&prof.RemoteIndicators, &prof.ContactEmails,
	}
	for i, raw := range sets {
		if err := unmarshalSet(raw, targets[i]); err != nil {
			return nil, fmt.Errorf("decode profile sets: %w", err)
		}
	}
	return &prof, nil
}

// UpsertProfile stores a profile keyed by domain.
func (s *Store) UpsertProfile(ctx context.Context, profile *crawl.CompanyProfile) error {
	if profile.Domain == "" {
		return fmt.Errorf("profile domain is required")
	}
	sets, err := marshalSets(
		profile.JobTitles, profile.TechKeywords, profile.HiringSignals,
		profile.RemoteIndicators, profile.ContactEmails,
	)
	if err != nil {
		return fmt.Errorf("encode profile sets: %w", err)
	}
	query := `
INSERT INTO company_profiles (
	domain, name, careers_url,
	job_titles, tech_keywords, hiring_signals, remote_indicators, contact_emails,
	pages_scraped, has_active_listings, first_seen, last_updated
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (domain) DO UPDATE SET
	name = EXCLUDED.name,
	careers_url = EXCLUDED.careers_url,
	job_titles = EXCLUDED.job_titles,
	tech_keywords = EXCLUDED.tech_keywords,
	hiring_signals = EXCLUDED.hiring_signals,
	remote_indicators = EXCLUDED.remote_indicators,
	contact_emails = EXCLUDED.contact_emails,
	pages_scraped = EXCLUDED.pages_scraped,
	has_active_listings = EXCLUDED.has_active_listings,
	first_seen = EXCLUDED.first_seen,
	last_updated = EXCLUDED.last_updated`

	args := []any{
		profile.Domain, profile.Name, profile.CareersURL,
		sets[0], sets[1], sets[2], sets[3], sets[4],
		profile.PagesScraped, profile.HasActiveListings,
		profile.FirstSeen, profile.LastUpdated,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// UpsertDomain stores a domain record.
func (s *Store) UpsertDomain(ctx context.Context, rec *crawl.DomainRecord) error {
	if rec.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	query := `
INSERT INTO domains (domain, source, status, discovered_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (domain) DO UPDATE SET
	source = EXCLUDED.source,
	status = EXCLUDED.status`

	args := []any{rec.Domain, rec.Source, string(rec.Status), rec.DiscoveredAt}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert domain: %w", err)
	}
	return nil
}

// AppendChange inserts a change record.
func (s *Store) AppendChange(ctx context.Context, change *crawl.Change) error {
	if change.ID == "" {
		return fmt.Errorf("change id is required")
	}
	query := `
INSERT INTO changes (id, domain, url, kind, old_value, new_value, detected_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

	args := []any{
		change.ID, change.Domain, change.URL, string(change.Kind),
		change.OldValue, change.NewValue, change.DetectedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert change: %w", err)
	}
	return nil
}

// RecentScores returns the score records for a domain, most recent first.
func (s *Store) RecentScores(ctx context.Context, domain string) ([]crawl.ScoreRecord, error) {
	query := `
SELECT domain, total_score, computed_at
FROM domain_scores
WHERE domain = $1
ORDER BY computed_at DESC`

	rows, err := s.pool.Query(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	defer rows.Close()

	var records []crawl.ScoreRecord
	for rows.Next() {
		var rec crawl.ScoreRecord
		if err := rows.Scan(&rec.Domain, &rec.Total, &rec.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return records, nil
}

// marshalSets encodes each string set as jsonb, representing nil as [].
func marshalSets(sets ...[]string) ([][]byte, error) {
	out := make([][]byte, len(sets))
	for i, set := range sets {
		if set == nil {
			set = []string{}
		}
		raw, err := json.Marshal(set)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func unmarshalSet(raw []byte, target *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	if len(values) > 0 {
		*target = values
	}
	return nil
}
