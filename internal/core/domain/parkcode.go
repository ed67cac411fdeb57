package domain

import (
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\-_]`)
	hyphenRun  = regexp.MustCompile(`-+`)
)

// URLFriendly lower-cases s and reduces it to [a-z0-9_-] with single,
// non-leading, non-trailing hyphens. Any Unicode whitespace run (NBSP
// included) becomes one hyphen. Whitespace-only input yields "".
func URLFriendly(s string) string {
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return ""
	}
	s = strings.Join(words, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DeriveParkCode builds the natural key "<name>-<region>" used as the stable
// external identifier of a park. It does not guarantee uniqueness.
//
// An empty component leaves a bare hyphen at the start or end of the key;
// such keys are degenerate but valid.
func DeriveParkCode(name, regionCode string) string {
	return URLFriendly(name) + "-" + URLFriendly(regionCode)
}

// IsDegenerateParkCode reports whether either component of code was empty.
func IsDegenerateParkCode(code string) bool {
	return strings.HasPrefix(code, "-") || strings.HasSuffix(code, "-")
}
