package postcode

import (
	"regexp"
	"strings"
)

var postcode5 = regexp.MustCompile(`^\d{5}$`)

// NormalizeQuery trims s and collapses every run of whitespace to one space.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePostcode returns the canonical 5-digit form of a postal code.
// Values such as "165-08" are reduced to their digits when exactly five
// remain; anything else is returned trimmed but otherwise untouched.
func NormalizePostcode(s string) string {
	raw := strings.TrimSpace(s)
	if postcode5.MatchString(raw) {
		return raw
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 5 {
		return digits
	}
	return raw
}

// IsPostcode5 reports whether s is exactly five ASCII digits.
func IsPostcode5(s string) bool {
	return postcode5.MatchString(s)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
