package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSeparators = regexp.MustCompile(`[\s_-]+`)
)

// GenerateSlug derives a URL-safe slug from a display name:
// "José's Café & Bar" becomes "joses-cafe-bar". The result may be empty.
func GenerateSlug(name string) string {
	folded := strings.TrimSpace(strings.ToLower(name))
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), folded)
	if err != nil {
		stripped = folded
	}
	stripped = slugInvalid.ReplaceAllString(stripped, "")
	stripped = slugSeparators.ReplaceAllString(stripped, "-")
	return strings.Trim(stripped, "-")
}

// ValidSlug reports whether slug is lowercase alphanumerics joined by single hyphens.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}
