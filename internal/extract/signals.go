package extract

import (
	"regexp"
	"strings"
)

// signalPattern pairs a compiled pattern with the tag emitted on match.
type signalPattern struct {
	re  *regexp.Regexp
	tag string
}

// hiringSignalPatterns are direct statements that a company is hiring. The
// tag is a cleaned form of the phrase, prefixed "hiring:".
var hiringSignalPatterns = buildSignalPatterns("hiring", []string{
	`we'?re\s+hiring`,
	`we\s+are\s+hiring`,
	`join\s+our\s+team`,
	`now\s+hiring`,
	`open\s+positions?`,
	`current\s+openings?`,
	`career\s+opportunities`,
	`come\s+work\s+with\s+us`,
	`growing\s+(?:our\s+)?team`,
	`expanding\s+(?:our\s+)?team`,
})

// fundingSignalPatterns suggest hiring budget. The matched text itself is
// emitted, prefixed "funding:".
var fundingSignalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`series\s+[a-d]\b`),
	regexp.MustCompile(`raised\s+\$?\d+`),
	regexp.MustCompile(`backed\s+by`),
	regexp.MustCompile(`y\s*combinator`),
	regexp.MustCompile(`yc\s+\w+\s+\d{4}`),
}

func buildSignalPatterns(prefix string, patterns []string) []signalPattern {
	out := make([]signalPattern, 0, len(patterns))
	for _, pattern := range patterns {
		tag := strings.NewReplacer(`\s+`, " ", `'?`, "", `(?:`, "", `)`, "", `?`, "", `\`, "").Replace(pattern)
		out = append(out, signalPattern{
			re:  regexp.MustCompile(pattern),
			tag: prefix + ":" + tag,
		})
	}
	return out
}

// HiringSignals returns tagged hiring and funding signal strings found in
// the text.
func (p *Pipeline) HiringSignals(text string) []string {
	textLower := strings.ToLower(text)
	var signals []string

	for _, sp := range hiringSignalPatterns {
		if sp.re.MatchString(textLower) {
			signals = append(signals, sp.tag)
		}
	}
	for _, re := range fundingSignalPatterns {
		if match := re.FindString(textLower); match != "" {
			signals = append(signals, "funding:"+match)
		}
	}
	return signals
}

// Remote work indicator patterns; one "remote" and one "hybrid" marker at
// most per page.
var (
	remotePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bremote\b`),
		regexp.MustCompile(`\bremote[- ]first\b`),
		regexp.MustCompile(`\bfully\s+remote\b`),
		regexp.MustCompile(`\bwork\s+from\s+(?:home|anywhere)\b`),
		regexp.MustCompile(`\bdistributed\s+team\b`),
		regexp.MustCompile(`\bremote[- ]friendly\b`),
	}
	hybridPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bhybrid\b`),
		regexp.MustCompile(`\bflexible\s+(?:work|location)\b`),
	}
)

// RemoteIndicators reports remote/hybrid work markers present in the text.
func (p *Pipeline) RemoteIndicators(text string) []string {
	textLower := strings.ToLower(text)
	var indicators []string

	for _, re := range remotePatterns {
		if re.MatchString(textLower) {
			indicators = append(indicators, "remote")
			break
		}
	}
	for _, re := range hybridPatterns {
		if re.MatchString(textLower) {
			indicators = append(indicators, "hybrid")
			break
		}
	}
	return indicators
}
