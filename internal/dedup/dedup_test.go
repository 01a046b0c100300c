package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		root string
	}{
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"https://www.acme.com/careers", "acme.com"},
		{"http://jobs.acme.com:8080/x", "acme.com"},
		{"ACME.COM", "acme.com"},
		{"careers.acme.co.uk", "acme.co.uk"},
		{"www.acme.com.au", "acme.com.au"},
	}
	for _, tt := range tests {
		info := Canonicalize(tt.in)
		require.True(t, info.Valid, "input %q", tt.in)
		require.Equal(t, tt.root, info.Root, "input %q", tt.in)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	inputs := []string{"https://www.acme.com/careers", "jobs.acme.co.uk", "acme.io"}
	for _, in := range inputs {
		once := Canonicalize(in).Root
		require.Equal(t, once, Canonicalize(once).Root, "input %q", in)
	}
}

func TestCanonicalizeInvalid(t *testing.T) {
	for _, in := range []string{"", "localhost", "   "} {
		require.False(t, Canonicalize(in).Valid, "input %q", in)
	}
}

func TestCanonicalizeSubdomainAndSuffix(t *testing.T) {
	info := Canonicalize("careers.eu.acme.co.uk")
	require.Equal(t, "acme.co.uk", info.Root)
	require.Equal(t, "careers.eu", info.Subdomain)
	require.Equal(t, "co.uk", info.Suffix)
}

func TestAddExactlyOncePerRoot(t *testing.T) {
	d := New(Config{})

	require.Equal(t, Added, d.Add("acme.com"))
	// Every other spelling of the same root is a duplicate.
	require.Equal(t, Duplicate, d.Add("www.acme.com"))
	require.Equal(t, Duplicate, d.Add("https://acme.com/careers"))
	require.Equal(t, Duplicate, d.Add("jobs.acme.com"))

	require.Equal(t, Added, d.Add("acme.io"))
	require.Equal(t, []string{"acme.com", "acme.io"}, d.Seen())
}

func TestAddBlocklist(t *testing.T) {
	d := New(Config{
		Blocklist:         []string{"facebook.com", "linkedin"},
		BlocklistPatterns: []string{`.*\.gov$`},
	})

	require.Equal(t, Blocked, d.Add("facebook.com"))
	require.Equal(t, Blocked, d.Add("www.linkedin.com"))
	require.Equal(t, Blocked, d.Add("nasa.gov"))
	require.Equal(t, Added, d.Add("acme.com"))
	require.True(t, d.IsBlocked("sub.facebook.com"))
}

func TestAddBatch(t *testing.T) {
	d := New(Config{Blocklist: []string{"spam.com"}})
	stats := d.AddBatch([]string{
		"acme.com",
		"www.acme.com",
		"spam.com",
		"not a domain",
		"beta.io",
	})
	require.Equal(t, BatchStats{Added: 2, Blocked: 1, Duplicate: 1, Invalid: 1}, stats)
}

func TestSimilarity(t *testing.T) {
	require.True(t, IsSimilar("acme.io", "acme.com", DefaultSimilarityThreshold),
		"same name under different TLDs")
	require.True(t, IsSimilar("acme-inc.com", "acmeinc.com", 85))
	require.False(t, IsSimilar("acme.com", "globex.com", 85))
}

func TestFindSimilar(t *testing.T) {
	pairs := FindSimilar([]string{"acme.com", "acme.io", "globex.com"}, 85)
	require.Len(t, pairs, 1)
	require.Equal(t, "acme.com", pairs[0].A)
	require.Equal(t, "acme.io", pairs[0].B)
	require.Equal(t, 100, pairs[0].Score, "identical name labels score 100")
}
