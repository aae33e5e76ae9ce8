package core

import (
	"encoding/binary"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable identifier derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SynonymMap maps a normalized word to its headword.
// Every headword maps to itself.
type SynonymMap map[string]string

// ConceptSource records which path produced the concepts of an EnhancedQuery.
type ConceptSource int

const (
	// ConceptSourceModel means the language model returned a usable term list.
	ConceptSourceModel ConceptSource = iota + 1
	// ConceptSourceFallback means the lowercased query was used instead.
	ConceptSourceFallback
)

// String returns the wire name of the source.
func (s ConceptSource) String() string {
	switch s {
	case ConceptSourceModel:
		return "model"
	case ConceptSourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ConceptSource) MarshalText() ([]byte, error) {
	if err := ValidateConceptSource(s); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ConceptSource) UnmarshalText(text []byte) error {
	switch string(text) {
	case "model":
		*s = ConceptSourceModel
	case "fallback":
		*s = ConceptSourceFallback
	default:
		return ErrInvalidConceptSource
	}
	return nil
}

// EnhancedQuery is the output of the enhancement pipeline.
// It is built once per request and not mutated afterwards.
type EnhancedQuery struct {
	Original      string        `json:"user_query"`
	Concepts      []string      `json:"sanskrit_concepts"`
	ConceptSource ConceptSource `json:"concept_source"`
	Expansions    []string      `json:"lexical_expansions"`
	Tags          []string      `json:"conceptual_tags"`
	FinalQuery    string        `json:"final_query_string"`
	ScopingFilter *string       `json:"scoping_filter"`
}

// Terms returns every stage term in stage order: concepts, expansions, tags.
// The returned slice is a copy.
func (q *EnhancedQuery) Terms() []string {
	terms := make([]string, 0, len(q.Concepts)+len(q.Expansions)+len(q.Tags))
	terms = append(terms, q.Concepts...)
	terms = append(terms, q.Expansions...)
	terms = append(terms, q.Tags...)
	return terms
}

// Filter returns the scoping filter or the empty string.
func (q *EnhancedQuery) Filter() string {
	if q.ScopingFilter == nil {
		return ""
	}
	return *q.ScopingFilter
}

// Clone returns a deep copy of the query.
func (q *EnhancedQuery) Clone() *EnhancedQuery {
	c := *q
	c.Concepts = slices.Clone(q.Concepts)
	c.Expansions = slices.Clone(q.Expansions)
	c.Tags = slices.Clone(q.Tags)
	if q.ScopingFilter != nil {
		f := *q.ScopingFilter
		c.ScopingFilter = &f
	}
	return &c
}

// Verse is one fetched corpus entry.
type Verse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// QueryInfo echoes the caller's question and the enhanced query.
type QueryInfo struct {
	Original string         `json:"original"`
	Enhanced *EnhancedQuery `json:"enhanced_query_object"`
}

// ResultSet holds the fetched verses.
type ResultSet struct {
	TotalVerses int     `json:"totalVerses"`
	Verses      []Verse `json:"verses"`
}

// CollectionMetadata describes when and by what a result was collected.
type CollectionMetadata struct {
	CollectionTime   time.Time `json:"collectionTime"`
	CollectorVersion string    `json:"collectorVersion"`
}

// CollectedResult is the response of a collection request.
type CollectedResult struct {
	SessionID string             `json:"sessionId"`
	Query     QueryInfo          `json:"query"`
	Results   ResultSet          `json:"results"`
	Metadata  CollectionMetadata `json:"metadata"`
}
