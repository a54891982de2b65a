package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalize returns the comparison form of an instruction: Unicode case
// folded, punctuation removed, runs of whitespace collapsed to one space.
// Apostrophes are dropped so "don't" and "dont" compare equal.
func Normalize(s string) string {
	folded := cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// Tokens splits a normalized string into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
