package textutil

import (
	"strings"
	"unicode"
)

// FileToken reduces value to a lowercase token safe for use in a file
// name. Letters and digits are kept, hyphens and underscores pass through,
// and every other run of characters collapses to one underscore. Empty
// input yields "unknown".
func FileToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
