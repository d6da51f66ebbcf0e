package filter

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ExtractEmails returns the unique email-shaped substrings found in
// text, in order of first appearance. Case is preserved as found.
func ExtractEmails(text string) []string {
	matches := emailRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var emails []string
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		emails = append(emails, m)
	}
	return emails
}

// CountryAllowed reports whether a channel's country code passes the
// allow-set. An empty set means no restriction; otherwise a missing
// code is rejected.
func CountryAllowed(code string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	if code == "" {
		return false
	}
	_, ok := allowed[strings.ToUpper(code)]
	return ok
}
