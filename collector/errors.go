package collector

import "errors"

var (
	// ErrEnhancerRequired is returned when no query enhancer is provided.
	ErrEnhancerRequired = errors.New("query enhancer required")

	// ErrBackendRequired is returned when no retrieval backend is provided.
	ErrBackendRequired = errors.New("retrieval backend required")

	// ErrContentStoreRequired is returned when no content store is provided.
	ErrContentStoreRequired = errors.New("content store required")

	// ErrInvalidPageSize is returned for a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be greater than 0")

	// ErrInvalidMaxVerses is returned for a non-positive verse limit.
	ErrInvalidMaxVerses = errors.New("max verses must be greater than 0")
)
