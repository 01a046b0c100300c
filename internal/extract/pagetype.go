package extract

import (
	"regexp"
	"strings"

	"github.com/talentsignal/hirewatch/internal/crawl"
)

// careersURLPatterns classify a page as careers from its path alone. URL
// shape takes precedence over content.
var careersURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/careers?/?`),
	regexp.MustCompile(`/jobs?/?`),
	regexp.MustCompile(`/work-with-us/?`),
	regexp.MustCompile(`/join-us/?`),
	regexp.MustCompile(`/opportunities/?`),
	regexp.MustCompile(`/openings/?`),
	regexp.MustCompile(`/positions/?`),
	regexp.MustCompile(`/hiring/?`),
	regexp.MustCompile(`/team/?.*jobs`),
}

// careersContentPatterns classify pages whose URL gives nothing away. Two
// distinct phrase hits are required.
var careersContentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`open\s+positions?`),
	regexp.MustCompile(`current\s+openings?`),
	regexp.MustCompile(`job\s+openings?`),
	regexp.MustCompile(`career\s+opportunities`),
	regexp.MustCompile(`we'?re\s+hiring`),
	regexp.MustCompile(`join\s+our\s+team`),
	regexp.MustCompile(`apply\s+now`),
	regexp.MustCompile(`view\s+all\s+jobs`),
}

// PageType classifies a page from its URL first, then from its text.
func (p *Pipeline) PageType(url, text string) crawl.PageType {
	urlLower := strings.ToLower(url)

	for _, re := range careersURLPatterns {
		if re.MatchString(urlLower) {
			return crawl.PageTypeCareers
		}
	}
	switch {
	case strings.Contains(urlLower, "/about"):
		return crawl.PageTypeAbout
	case strings.Contains(urlLower, "/team"):
		return crawl.PageTypeTeam
	case strings.Contains(urlLower, "/engineering"), strings.Contains(urlLower, "/blog"):
		return crawl.PageTypeEngineering
	}

	textLower := strings.ToLower(text)
	score := 0
	for _, re := range careersContentPatterns {
		if re.MatchString(textLower) {
			score++
		}
	}
	if score >= 2 {
		return crawl.PageTypeCareers
	}
	return crawl.PageTypeOther
}
