package thesaurus

import (
	"regexp"
	"strings"
)

// wordPattern matches IAST-romanized words.
var wordPattern = regexp.MustCompile(`[a-zA-Zāīūṛṝḷḹṃḥśṣṭḍṇṅñ]+`)

// stopWords are particles that never start a synonym line.
var stopWords = map[string]struct{}{
	"ca":  {},
	"vā":  {},
	"tu":  {},
	"hi":  {},
	"iti": {},
}

// Tokenize lowercases a line and returns its recognized words in order.
func Tokenize(line string) []string {
	return wordPattern.FindAllString(strings.ToLower(line), -1)
}

// IsStopWord reports whether w is one of the fixed particles.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Entry is one qualifying verse line.
type Entry struct {
	Headword string
	Synonyms []string
}

// ParseLine extracts the headword and synonyms of a line.
// ok is false when the line has fewer than two words or starts with a stop word.
func ParseLine(line string) (entry Entry, ok bool) {
	words := Tokenize(line)
	if len(words) < 2 {
		return Entry{}, false
	}
	if IsStopWord(words[0]) {
		return Entry{}, false
	}
	return Entry{Headword: words[0], Synonyms: words[1:]}, true
}
