package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrEndpointRequired is returned when a Client has no endpoint URL.
	ErrEndpointRequired = errors.New("retrieval endpoint required")

	// ErrTokenSourceRequired is returned when a Client has no token source.
	ErrTokenSourceRequired = errors.New("retrieval token source required")

	// ErrEmptyQuery is returned for a blank query string.
	ErrEmptyQuery = errors.New("retrieval query cannot be empty")

	// ErrInvalidPageSize is returned for a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be greater than 0")

	// ErrMalformedResponse is returned when a success response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed retrieval response")
)

// StatusError is a non-success response from the backend.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("retrieval backend returned %d: %s", e.StatusCode, e.Message)
}
