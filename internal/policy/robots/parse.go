package robots

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse reads robots.txt content into per-agent rule sets. The format is
// line oriented: a User-agent line opens a block, and consecutive
// User-agent lines before any directive share the block that follows.
// Unknown directives and malformed lines are skipped, never fatal.
func Parse(content string) map[string]RuleSet {
	rules := make(map[string]RuleSet)

	var (
		agents     []string
		allowed    []string
		disallowed []string
		delay      time.Duration
		hasDelay   bool
		inBlock    bool // a directive has been seen since the last User-agent line
	)

	flush := func() {
		for _, agent := range agents {
			rules[strings.ToLower(agent)] = RuleSet{
				Agent:      agent,
				Allowed:    append([]string(nil), allowed...),
				Disallowed: append([]string(nil), disallowed...),
				CrawlDelay: delay,
				HasDelay:   hasDelay,
			}
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		directive, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		switch directive {
		case "user-agent":
			if inBlock {
				flush()
				agents = nil
				allowed = nil
				disallowed = nil
				delay = 0
				hasDelay = false
				inBlock = false
			}
			agents = append(agents, value)
		case "allow":
			allowed = append(allowed, value)
			inBlock = true
		case "disallow":
			disallowed = append(disallowed, value)
			inBlock = true
		case "crawl-delay":
			if secs, err := strconv.ParseFloat(value, 64); err == nil {
				delay = time.Duration(secs * float64(time.Second))
				hasDelay = true
			}
			inBlock = true
		}
	}
	flush()
	return rules
}

// MatchPath reports whether a request path matches a robots.txt pattern.
// '*' matches any sequence and a trailing '$' anchors the end of the path;
// unanchored patterns implicitly match any suffix.
func MatchPath(pattern, path string) bool {
	if pattern == "" {
		return false
	}
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\$`, "$")
	if !strings.HasSuffix(quoted, "$") {
		quoted += ".*"
	}
	re, err := regexp.Compile("^" + quoted)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
