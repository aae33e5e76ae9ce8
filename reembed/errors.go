package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyVocabulary is returned when there are no tags to embed
	ErrEmptyVocabulary = errors.New("tag vocabulary is empty")

	// ErrEmbeddingCountMismatch is returned when the embedder returns a different number of vectors than requested
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
