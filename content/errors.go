package content

import "errors"

var (
	// ErrNotFound is returned by Fetch when the key does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidKey is returned for an empty key or one that escapes the store root.
	ErrInvalidKey = errors.New("invalid content key")

	// ErrBucketURLRequired is returned when a COSStore has no bucket URL.
	ErrBucketURLRequired = errors.New("bucket URL required")
)
