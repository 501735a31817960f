package blogservice

import (
	"regexp"
	"strings"
)

var whitespaceRX = regexp.MustCompile(`\s+`)

// NormalizeSlug trims, lower-cases and joins whitespace runs with a single hyphen.
func NormalizeSlug(slug string) string {
	return whitespaceRX.ReplaceAllString(strings.ToLower(strings.TrimSpace(slug)), "-")
}
