package shared

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\x{0E81}-\x{0EDD}\s\p{Zs}-]`)
	slugSpaces     = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// combiningDiacritic matches the Combining Diacritical Marks block only, so
// Lao vowel signs and tone marks survive.
func combiningDiacritic(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
}

// Slugify converts a title into a URL slug. Latin diacritics are stripped after
// NFD decomposition and the result stays decomposed. ASCII letters, digits,
// Lao letters and hyphens survive; any run of spaces becomes one hyphen.
func Slugify(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(combiningDiacritic)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	stripped = slugDisallowed.ReplaceAllString(stripped, "")
	stripped = strings.TrimSpace(stripped)
	stripped = slugSpaces.ReplaceAllString(stripped, "-")
	return strings.ToLower(stripped)
}
