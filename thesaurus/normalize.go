package thesaurus

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize returns the lookup key for s: canonical decomposition, combining
// marks removed, lowercased. It never fails; characters it cannot map pass
// through unchanged.
func Normalize(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		result = s
	}
	return strings.ToLower(result)
}
