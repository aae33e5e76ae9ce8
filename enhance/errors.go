package enhance

import "errors"

var (
	// ErrSynonymMapRequired is returned when no synonym map is provided.
	ErrSynonymMapRequired = errors.New("synonym map required")

	// ErrTagVocabularyRequired is returned when the tag vocabulary is empty.
	ErrTagVocabularyRequired = errors.New("tag vocabulary required")

	// ErrTagIndexRequired is returned when no tag index is provided.
	ErrTagIndexRequired = errors.New("tag index required")

	// ErrAIProviderRequired is returned when no AI provider is provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrIndexVocabularyMismatch is returned when the tag index and the tag
	// vocabulary hold a different number of entries.
	ErrIndexVocabularyMismatch = errors.New("tag index does not match tag vocabulary")

	// ErrInvalidTopK is returned when WithTopK is given a non-positive value.
	ErrInvalidTopK = errors.New("top k must be greater than 0")
)
