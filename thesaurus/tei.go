package thesaurus

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// DefaultMinLineTags is the <l> count below which the verse splitter also runs.
const DefaultMinLineTags = 1000

var (
	// lineExpr selects verse lines regardless of the TEI namespace prefix.
	lineExpr = xpath.MustCompile(`//*[local-name()='l']`)

	// verseMarker matches "(chapter.section.verse)" numbering.
	verseMarker = regexp.MustCompile(`\(\d+\.\d+\.\d+\)`)

	// rawLineTag matches an opening <l> tag in unparsed text.
	rawLineTag = regexp.MustCompile(`<l[\s>]`)
)

// Document is a parsed corpus file reduced to its ordered line texts.
type Document struct {
	Name  string
	Lines []string

	// LineTags is the number of <l> elements the XML parse found.
	LineTags int
	// Recovered is set when the strict parse failed and the lenient one ran.
	Recovered bool
	// UsedFallback is set when lines were also taken from the verse splitter.
	UsedFallback bool
}

// ParseTEI reads a TEI document and extracts its verse lines.
// Lines from <l> elements come first, followed by splitter lines when the
// element count is below minLineTags.
func ParseTEI(name string, r io.Reader, minLineTags int) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySource)
	}

	doc := &Document{Name: name}

	root, recovered, parseErr := parseXML(data)
	if parseErr == nil {
		doc.Recovered = recovered
		for _, n := range xmlquery.QuerySelectorAll(root, lineExpr) {
			doc.Lines = append(doc.Lines, strings.TrimSpace(n.InnerText()))
		}
		doc.LineTags = len(doc.Lines)
	}

	if doc.LineTags < minLineTags {
		verses := SplitVerses(string(data))
		if len(verses) > 0 {
			doc.UsedFallback = true
			doc.Lines = append(doc.Lines, verses...)
		}
	}

	if parseErr != nil && len(doc.Lines) == 0 {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrUnparsableSource, parseErr)
	}
	return doc, nil
}

// parseXML tries a strict parse, then a lenient one that auto-closes
// unbalanced tags and accepts HTML entities.
func parseXML(data []byte) (*xmlquery.Node, bool, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err == nil {
		return root, false, nil
	}

	root, rerr := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:    false,
			AutoClose: xml.HTMLAutoClose,
			Entity:    xml.HTMLEntity,
		},
	})
	if rerr != nil {
		return nil, false, fmt.Errorf("strict parse: %v; recovery parse: %w", err, rerr)
	}
	return root, true, nil
}

// SplitVerses cuts raw text at "(c.s.v)" markers and returns the non-empty
// text following each marker, up to the next marker or the end.
func SplitVerses(text string) []string {
	marks := verseMarker.FindAllStringIndex(text, -1)
	verses := make([]string, 0, len(marks))
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		verse := strings.TrimSpace(text[m[1]:end])
		if verse != "" {
			verses = append(verses, verse)
		}
	}
	return verses
}

// CountLineTags counts opening <l> tags in raw bytes without parsing.
// It is a cheap integrity check for truncated downloads.
func CountLineTags(data []byte) int {
	return len(rawLineTag.FindAllIndex(data, -1))
}
