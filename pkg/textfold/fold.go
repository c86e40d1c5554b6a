// Package textfold normalizes names for case- and accent-insensitive search.
package textfold

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics, so "José Álvarez" becomes
// "jose alvarez". Runs of whitespace collapse to one space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// ContainsPattern returns an escaped regular expression matching the folded
// form of term anywhere in a folded field
func ContainsPattern(term string) string {
	return regexp.QuoteMeta(Fold(term))
}
