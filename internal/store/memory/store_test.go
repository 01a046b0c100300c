package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

func TestSnapshotRoundtrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetSnapshot(ctx, "https://acme.com/careers")
	require.ErrorIs(t, err, crawl.ErrNotFound)

	snap := &crawl.PageSnapshot{
		URL:         "https://acme.com/careers",
		Domain:      "acme.com",
		ContentHash: "hash-1",
		JobTitles:   []string{"Senior Data Engineer"},
	}
	require.NoError(t, s.PutSnapshot(ctx, snap))

	got, err := s.GetSnapshot(ctx, snap.URL)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	// Put replaces the latest snapshot for the URL.
	snap2 := &crawl.PageSnapshot{URL: snap.URL, Domain: "acme.com", ContentHash: "hash-2"}
	require.NoError(t, s.PutSnapshot(ctx, snap2))
	got, err = s.GetSnapshot(ctx, snap.URL)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.ContentHash)
}

func TestGetSnapshotReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.PutSnapshot(ctx, &crawl.PageSnapshot{URL: "u", ContentHash: "a"}))

	got, err := s.GetSnapshot(ctx, "u")
	require.NoError(t, err)
	got.ContentHash = "mutated"

	again, err := s.GetSnapshot(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, "a", again.ContentHash)
}

func TestProfileRoundtrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "acme.com")
	require.ErrorIs(t, err, crawl.ErrNotFound)

	prof := &crawl.CompanyProfile{Domain: "acme.com", Name: "Acme", PagesScraped: 2}
	require.NoError(t, s.UpsertProfile(ctx, prof))

	got, err := s.GetProfile(ctx, "acme.com")
	require.NoError(t, err)
	require.Equal(t, prof, got)
}

func TestDomainsSorted(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, d := range []string{"globex.com", "acme.com"} {
		require.NoError(t, s.UpsertDomain(ctx, &crawl.DomainRecord{Domain: d, Status: crawl.DomainStatusScraped}))
	}

	domains := s.Domains()
	require.Len(t, domains, 2)
	require.Equal(t, "acme.com", domains[0].Domain)
	require.Equal(t, "globex.com", domains[1].Domain)
}

func TestChangesAppendOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, kind := range []crawl.ChangeKind{crawl.ChangeContent, crawl.ChangeNewListing} {
		require.NoError(t, s.AppendChange(ctx, &crawl.Change{
			ID:     string(rune('a' + i)),
			Domain: "acme.com",
			Kind:   kind,
		}))
	}

	changes := s.Changes()
	require.Len(t, changes, 2)
	require.Equal(t, crawl.ChangeContent, changes[0].Kind)
	require.Equal(t, crawl.ChangeNewListing, changes[1].Kind)
}

func TestRecentScoresMostRecentFirst(t *testing.T) {
	s := New()
	base := time.Unix(1700000000, 0).UTC()
	s.AddScore(crawl.ScoreRecord{Domain: "acme.com", Total: 40, ComputedAt: base})
	s.AddScore(crawl.ScoreRecord{Domain: "acme.com", Total: 60, ComputedAt: base.Add(2 * time.Hour)})
	s.AddScore(crawl.ScoreRecord{Domain: "acme.com", Total: 50, ComputedAt: base.Add(time.Hour)})

	scores, err := s.RecentScores(context.Background(), "acme.com")
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, float64(60), scores[0].Total)
	require.Equal(t, float64(50), scores[1].Total)
	require.Equal(t, float64(40), scores[2].Total)

	other, err := s.RecentScores(context.Background(), "globex.com")
	require.NoError(t, err)
	require.Empty(t, other)
}
