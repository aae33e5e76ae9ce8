package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/tagindex"
	"github.com/poiesic/gurukul/thesaurus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultTopK is the number of tags returned by the tag mapping stage.
	DefaultTopK = 7

	// minHeadwordRunes is the shortest headword kept by lexical expansion.
	minHeadwordRunes = 3
)

// Enhancer runs the query enhancement stages.
// It holds no per-request state and is safe for concurrent use.
type Enhancer struct {
	synonyms core.SynonymMap
	tags     []string
	index    *tagindex.Index
	embedder ai.Embedder
	model    ai.LanguageModel
	topK     int
	monitor  Monitor
	logger   *slog.Logger

	fallbacks metric.Int64Counter
	misses    metric.Int64Counter
}

// Option configures an Enhancer.
type Option func(*Enhancer) error

// WithTopK sets how many tags the tag mapping stage returns.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(e *Enhancer) error {
		if k <= 0 {
			return ErrInvalidTopK
		}
		e.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enhancer) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "enhancer")
		return nil
	}
}

// WithMonitor sets the monitor used by Enhance.
func WithMonitor(monitor Monitor) Option {
	return func(e *Enhancer) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// New creates an Enhancer over assets. The embedder and language model are
// taken from provider; the caller keeps ownership of provider.
func New(assets *Assets, provider ai.AIProvider, opts ...Option) (*Enhancer, error) {
	if assets == nil || assets.SynonymMap == nil {
		return nil, ErrSynonymMapRequired
	}
	if len(assets.Tags) == 0 {
		return nil, ErrTagVocabularyRequired
	}
	if assets.Index == nil {
		return nil, ErrTagIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if n := assets.Index.Len(); n != len(assets.Tags) {
		return nil, fmt.Errorf("%w: %d vectors, %d tags", ErrIndexVocabularyMismatch, n, len(assets.Tags))
	}

	meter := otel.Meter("github.com/poiesic/gurukul/enhance")
	fallbacks, _ := meter.Int64Counter(
		"gurukul.enhance.concept_fallbacks",
		metric.WithDescription("Concept extraction replies replaced by the lowercased query"),
	)
	misses, _ := meter.Int64Counter(
		"gurukul.enhance.thesaurus_misses",
		metric.WithDescription("Concepts with no usable synonym map entry"),
	)

	e := &Enhancer{
		synonyms:  assets.SynonymMap,
		tags:      assets.Tags,
		index:     assets.Index,
		embedder:  provider.Embedder(),
		model:     provider.LanguageModel(),
		topK:      DefaultTopK,
		monitor:   &noopMonitor{},
		logger:    slog.Default().With("component", "enhancer"),
		fallbacks: fallbacks,
		misses:    misses,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Enhance runs every stage on query and returns the merged result.
// Only a failure to reach the language model or the embedder is an error.
func (e *Enhancer) Enhance(ctx context.Context, query string) (*core.EnhancedQuery, error) {
	return e.EnhanceWithMonitor(ctx, query, e.monitor)
}

// EnhanceWithMonitor is Enhance with a monitor for this call only.
func (e *Enhancer) EnhanceWithMonitor(ctx context.Context, query string, monitor Monitor) (*core.EnhancedQuery, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Concept extraction
	concepts, source, err := e.extractConcepts(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterConceptExtraction(concepts, source)

	// 2. Lexical expansion
	expansions := e.expandLexically(ctx, concepts, monitor)
	monitor.AfterLexicalExpansion(expansions)

	// 3. Tag mapping
	tags, neighbors, err := e.mapTags(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterTagMapping(tags, neighbors)

	result := &core.EnhancedQuery{
		Original:      query,
		Concepts:      concepts,
		ConceptSource: source,
		Expansions:    expansions,
		Tags:          tags,
		FinalQuery:    merge(concepts, expansions, tags),
	}

	e.logger.Debug("query enhanced",
		"concepts", len(concepts),
		"source", source.String(),
		"expansions", len(expansions),
		"tags", len(tags))
	monitor.Finish(result)

	return result, nil
}

// extractConcepts asks the language model for Sanskrit terms. Any reply
// that is not a JSON array of strings yields the lowercased query.
func (e *Enhancer) extractConcepts(ctx context.Context, query string) ([]string, core.ConceptSource, error) {
	reply, err := e.model.Generate(ctx, fmt.Sprintf(conceptPrompt, query))
	if err != nil {
		e.logger.Error("error extracting concepts from query", "err", err)
		return nil, 0, fmt.Errorf("concept extraction: %w", err)
	}

	if concepts, ok := parseConcepts(reply); ok {
		return concepts, core.ConceptSourceModel, nil
	}

	e.logger.Warn("concept extraction reply is not a JSON string array, using query", "reply", reply)
	if e.fallbacks != nil {
		e.fallbacks.Add(ctx, 1)
	}
	return []string{strings.ToLower(query)}, core.ConceptSourceFallback, nil
}

// expandLexically maps each concept to its headword. Misses and headwords
// shorter than minHeadwordRunes are dropped.
func (e *Enhancer) expandLexically(ctx context.Context, concepts []string, monitor Monitor) []string {
	expansions := make([]string, 0, len(concepts))
	seen := make(map[string]struct{}, len(concepts))
	for _, concept := range concepts {
		headword, ok := thesaurus.Lookup(e.synonyms, concept)
		if !ok {
			e.logger.Debug("concept not found in synonym map", "concept", concept)
			if e.misses != nil {
				e.misses.Add(ctx, 1)
			}
			monitor.LookupMiss(concept)
			continue
		}
		if utf8.RuneCountInString(headword) < minHeadwordRunes {
			continue
		}
		if _, dup := seen[headword]; dup {
			continue
		}
		seen[headword] = struct{}{}
		expansions = append(expansions, headword)
	}
	return expansions
}

// mapTags returns the vocabulary entries nearest to the query embedding,
// closest first.
func (e *Enhancer) mapTags(ctx context.Context, query string) ([]string, []tagindex.Neighbor, error) {
	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "err", err)
		return nil, nil, fmt.Errorf("tag mapping: %w", err)
	}

	neighbors, err := e.index.Search(embedding, min(e.topK, len(e.tags)))
	if err != nil {
		e.logger.Error("error searching tag index", "err", err)
		return nil, nil, fmt.Errorf("tag mapping: %w", err)
	}

	tags := make([]string, len(neighbors))
	for i, n := range neighbors {
		tags[i] = e.tags[n.Index]
	}
	return tags, neighbors, nil
}

// merge joins the distinct non-empty terms of every list with single
// spaces, in first-seen order.
func merge(lists ...[]string) string {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, list := range lists {
		for _, term := range list {
			if term == "" {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return strings.Join(terms, " ")
}
