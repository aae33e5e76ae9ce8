package content

import (
	"context"
	"strings"
)

// Store is a read-only blob store of verse text.
// Implementations must be safe for concurrent use.
type Store interface {
	// Exists reports whether key names an object.
	Exists(ctx context.Context, key string) (bool, error)

	// Fetch returns the object at key as text. A missing object is ErrNotFound.
	Fetch(ctx context.Context, key string) (string, error)
}

// ResolveLocator turns a content locator into a store key.
//
// A locator of the form scheme://bucket/key resolves to key when bucket
// equals the given bucket, or when bucket is empty. Any other locator is
// returned unchanged.
func ResolveLocator(locator, bucket string) string {
	_, rest, ok := strings.Cut(locator, "://")
	if !ok {
		return locator
	}
	host, key, ok := strings.Cut(rest, "/")
	if !ok {
		return locator
	}
	if bucket != "" && host != bucket {
		return locator
	}
	return key
}
