// Package dedup canonicalizes discovered domains to their registrable
// root, filters them against a blocklist, and tracks a seen-set with
// advisory fuzzy near-duplicate detection.
package dedup

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/net/publicsuffix"
)

// Info is the parsed form of a domain or URL.
type Info struct {
	Original  string
	Root      string
	Subdomain string
	Suffix    string
	Valid     bool
}

// Result classifies the outcome of Add.
type Result string

// Add outcomes.
const (
	Added     Result = "added"
	Blocked   Result = "blocked"
	Duplicate Result = "duplicate"
	Invalid   Result = "invalid"
)

// BatchStats counts Add outcomes over a batch.
type BatchStats struct {
	Added     int
	Blocked   int
	Duplicate int
	Invalid   int
}

// SimilarPair flags two domains whose names look alike. Advisory only.
type SimilarPair struct {
	A     string
	B     string
	Score int
}

// DefaultSimilarityThreshold is the 0-100 score at or above which two
// domain names are reported as near duplicates.
const DefaultSimilarityThreshold = 85

// multiPartSuffixes backs up the public suffix list for the common
// two-label TLDs when a host does not resolve through it.
var multiPartSuffixes = []string{"co.uk", "com.au", "co.nz", "com.br", "co.jp"}

// Config supplies the blocklist explicitly; there is no global state.
type Config struct {
	Blocklist         []string // exact or contained domain fragments
	BlocklistPatterns []string // regular expressions matched against the root
}

// Deduplicator tracks canonical root domains already seen.
type Deduplicator struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	blocklist []string
	patterns  []*regexp.Regexp
}

// New builds a Deduplicator. Invalid blocklist patterns are skipped.
func New(cfg Config) *Deduplicator {
	d := &Deduplicator{seen: make(map[string]struct{})}
	for _, entry := range cfg.Blocklist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			d.blocklist = append(d.blocklist, entry)
		}
	}
	for _, pattern := range cfg.BlocklistPatterns {
		// Patterns match from the start of the root domain.
		if re, err := regexp.Compile("^(?:" + pattern + ")"); err == nil {
			d.patterns = append(d.patterns, re)
		}
	}
	return d
}

// Canonicalize reduces a URL or host to its registrable root domain:
// scheme, leading www., and port stripped, public-suffix-aware split with
// a small multi-part-TLD fallback.
func Canonicalize(urlOrDomain string) Info {
	original := strings.ToLower(strings.TrimSpace(urlOrDomain))
	host := original

	if strings.Contains(host, "://") {
		if parsed, err := url.Parse(host); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	host = strings.Trim(host, ".")

	info := Info{Original: original}
	if host == "" || !strings.Contains(host, ".") {
		info.Root = host
		return info
	}

	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		suffix, _ := publicsuffix.PublicSuffix(host)
		info.Root = root
		info.Suffix = suffix
		info.Subdomain = strings.TrimSuffix(strings.TrimSuffix(host, root), ".")
		info.Valid = true
		return info
	}

	return fallbackSplit(info, host)
}

// fallbackSplit derives the root from a short table of known multi-part
// suffixes, else the last two labels.
func fallbackSplit(info Info, host string) Info {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		info.Root = host
		return info
	}
	for _, suffix := range multiPartSuffixes {
		if host == suffix {
			info.Root = host
			return info
		}
		if strings.HasSuffix(host, "."+suffix) {
			n := len(strings.Split(suffix, ".")) + 1
			if len(parts) < n {
				break
			}
			info.Root = strings.Join(parts[len(parts)-n:], ".")
			info.Subdomain = strings.Join(parts[:len(parts)-n], ".")
			info.Suffix = suffix
			info.Valid = true
			return info
		}
	}
	info.Root = strings.Join(parts[len(parts)-2:], ".")
	info.Subdomain = strings.Join(parts[:len(parts)-2], ".")
	info.Suffix = parts[len(parts)-1]
	info.Valid = true
	return info
}

// IsBlocked reports whether a root domain matches the blocklist, either by
// containment of a listed fragment or by a listed pattern.
func (d *Deduplicator) IsBlocked(domain string) bool {
	domain = strings.ToLower(domain)
	for _, blocked := range d.blocklist {
		if strings.Contains(domain, blocked) {
			return true
		}
	}
	for _, re := range d.patterns {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// Add canonicalizes the input and inserts its root domain into the
// seen-set. Exactly one Add per canonical root returns Added; later calls
// return Duplicate regardless of the input form.
func (d *Deduplicator) Add(urlOrDomain string) Result {
	info := Canonicalize(urlOrDomain)
	if !info.Valid {
		return Invalid
	}
	if d.IsBlocked(info.Root) {
		return Blocked
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[info.Root]; ok {
		return Duplicate
	}
	d.seen[info.Root] = struct{}{}
	return Added
}

// AddBatch adds every input and tallies the outcomes.
func (d *Deduplicator) AddBatch(inputs []string) BatchStats {
	var stats BatchStats
	for _, in := range inputs {
		switch d.Add(in) {
		case Added:
			stats.Added++
		case Blocked:
			stats.Blocked++
		case Duplicate:
			stats.Duplicate++
		default:
			stats.Invalid++
		}
	}
	return stats
}

// Seen returns the canonical domains added so far, sorted.
func (d *Deduplicator) Seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.seen))
	for domain := range d.seen {
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}

// similarityScore is a normalized edit-distance ratio (0-100) between the
// name labels of two domains, ignoring their suffixes.
func similarityScore(a, b string) int {
	nameA := nameLabel(a)
	nameB := nameLabel(b)
	if nameA == "" && nameB == "" {
		return 100
	}
	longest := max(len(nameA), len(nameB))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(nameA, nameB)
	return int(100 * (1 - float64(dist)/float64(longest)))
}

func nameLabel(urlOrDomain string) string {
	root := Canonicalize(urlOrDomain).Root
	label, _, _ := strings.Cut(root, ".")
	return label
}

// IsSimilar reports whether two domains look like near duplicates
// (acme.io vs acme.com, acme-inc.com vs acmeinc.com). It never merges
// anything; callers use it to flag candidates for manual review.
func IsSimilar(a, b string, threshold int) bool {
	return similarityScore(a, b) >= threshold
}

// FindSimilar returns all near-duplicate pairs in the list, best matches
// first. Identical inputs are not reported, but distinct domains sharing a
// name label (acme.com, acme.io) are, at score 100.
func FindSimilar(domains []string, threshold int) []SimilarPair {
	var pairs []SimilarPair
	for i, a := range domains {
		for _, b := range domains[i+1:] {
			if a == b {
				continue
			}
			score := similarityScore(a, b)
			if score >= threshold {
				pairs = append(pairs, SimilarPair{A: a, B: b, Score: score})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}
