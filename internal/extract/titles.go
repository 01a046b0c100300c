package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Job title candidates come from two places: role-word matches inside
// heading/anchor/list-item markup, and JobPosting structured data.
var titleMarkupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<h[1-4][^>]*>([^<]*(?:engineer|developer|scientist|analyst|architect)[^<]*)</h[1-4]>`),
	regexp.MustCompile(`(?i)<a[^>]*>([^<]*(?:engineer|developer|scientist|analyst|architect)[^<]*)</a>`),
	regexp.MustCompile(`(?i)<li[^>]*>([^<]*(?:engineer|developer|scientist|analyst|architect)[^<]*)</li>`),
	regexp.MustCompile(`(?i)"title"\s*:\s*"([^"]*(?:engineer|developer|scientist|analyst)[^"]*)"`),
	regexp.MustCompile(`(?i)"jobTitle"\s*:\s*"([^"]*)"`),
}

// Plausible listing titles sit in this length window; anything shorter is
// a fragment, anything longer a sentence.
const (
	minTitleLen = 11
	maxTitleLen = 99
)

// jsonLDNode is the subset of a JSON-LD block we care about.
type jsonLDNode struct {
	Type  string `json:"@type"`
	Title string `json:"title"`
}

// JobTitles extracts deduplicated job titles from raw markup and JSON-LD
// JobPosting records. Markup matches are normalized to title case;
// structured titles are kept verbatim.
func (p *Pipeline) JobTitles(html string, doc *goquery.Document) []string {
	set := make(map[string]struct{})

	// cases.Caser carries mutable transform state, so a fresh one is
	// built per call instead of being shared across goroutines.
	caser := cases.Title(language.English)
	for _, re := range titleMarkupPatterns {
		for _, match := range re.FindAllStringSubmatch(html, -1) {
			title := strings.TrimSpace(match[1])
			if len(title) >= minTitleLen && len(title) <= maxTitleLen {
				set[caser.String(strings.ToLower(title))] = struct{}{}
			}
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, title := range jobPostingTitles(s.Text()) {
			set[title] = struct{}{}
		}
	})

	titles := make([]string, 0, len(set))
	for title := range set {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// jobPostingTitles pulls titles out of one JSON-LD block, which may hold a
// single node or an array. Malformed JSON yields no titles, never an
// error.
func jobPostingTitles(raw string) []string {
	var titles []string

	var node jsonLDNode
	if err := json.Unmarshal([]byte(raw), &node); err == nil {
		if node.Type == "JobPosting" && node.Title != "" {
			titles = append(titles, node.Title)
		}
		return titles
	}

	var nodes []jsonLDNode
	if err := json.Unmarshal([]byte(raw), &nodes); err == nil {
		for _, n := range nodes {
			if n.Type == "JobPosting" && n.Title != "" {
				titles = append(titles, n.Title)
			}
		}
	}
	return titles
}
