package extract

import (
	"regexp"
	"sort"
	"strings"
)

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Administrative mailboxes that never lead to a recruiter.
var emailSkipPatterns = []string{
	"noreply",
	"no-reply",
	"support@",
	"info@",
	"sales@",
	"marketing@",
	"admin@",
	"webmaster@",
	"privacy@",
	"legal@",
}

// Mailbox names that suggest a hiring contact; these rank ahead of
// everything else.
var emailPreferPatterns = []string{
	"careers@",
	"career@",
	"jobs@",
	"job@",
	"hiring@",
	"recruiting@",
	"recruit@",
	"talent@",
	"people@",
	"hr@",
	"team@",
}

// maxOtherEmails caps the non-recruiting addresses kept per page.
const maxOtherEmails = 3

// ContactEmails extracts contact addresses, dropping administrative
// mailboxes and ranking recruiting mailboxes first. At most
// maxOtherEmails non-recruiting addresses survive.
func (p *Pipeline) ContactEmails(text string) []string {
	seen := make(map[string]struct{})
	var preferred, other []string

	for _, email := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(email)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		if matchesAny(lower, emailSkipPatterns) {
			continue
		}
		if matchesAny(lower, emailPreferPatterns) {
			preferred = append(preferred, email)
		} else {
			other = append(other, email)
		}
	}

	sort.Strings(preferred)
	sort.Strings(other)
	if len(other) > maxOtherEmails {
		other = other[:maxOtherEmails]
	}
	return append(preferred, other...)
}

func matchesAny(s string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}
