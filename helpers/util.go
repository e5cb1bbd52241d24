package helpers

import (
	"strings"
	"unicode"
)

// CleanText collapses runs of whitespace, including non-breaking spaces,
// into single spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u202f", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Slugify lowercases s and joins its letter and digit runs with hyphens
func Slugify(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "-")
}
