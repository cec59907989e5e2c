package identity

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	titlePunctuation = regexp.MustCompile(`[^0-9A-Za-z\s]`)
	titleWhitespace  = regexp.MustCompile(`\s+`)
)

const akaSeparator = " aka "

// NormalizeTitle romanizes a title, replaces punctuation with spaces,
// collapses whitespace, and lowercases the result.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	romanized := unidecode.Unidecode(norm.NFKC.String(title))
	cleaned := titlePunctuation.ReplaceAllString(romanized, " ")
	return strings.ToLower(strings.TrimSpace(titleWhitespace.ReplaceAllString(cleaned, " ")))
}

// SplitAKA splits "Primary aka Secondary" into its two halves. The
// separator is matched case-insensitively and both halves are lowercased.
// Titles without the separator return the trimmed title and "".
func SplitAKA(title string) (primary, secondary string) {
	trimmed := strings.TrimSpace(title)
	lowered := strings.ToLower(trimmed)
	parts := strings.Split(lowered, akaSeparator)
	if len(parts) < 2 {
		return trimmed, ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
