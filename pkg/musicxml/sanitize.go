package musicxml

import (
	"strings"
	"unicode"
)

// MaxFieldLength is the maximum number of characters kept for a title,
// composer or subtitle.
const MaxFieldLength = 200

// Sanitize collapses runs of Unicode whitespace to single spaces, trims the
// result and truncates it to MaxFieldLength characters.
func Sanitize(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), MaxFieldLength)
}

// truncate shortens s to at most limit runes. When a space falls within the
// last 20% of the limit the cut happens there instead of mid-word.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if unicode.IsSpace(runes[limit]) {
		return strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
	}

	boundary := limit - limit/5
	for i := limit - 1; i >= boundary; i-- {
		if unicode.IsSpace(runes[i]) {
			return strings.TrimRightFunc(string(runes[:i]), unicode.IsSpace)
		}
	}
	return string(runes[:limit])
}
