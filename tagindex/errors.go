package tagindex

import "errors"

var (
	// ErrInvalidDimension is returned for a non-positive vector dimension.
	ErrInvalidDimension = errors.New("dimension must be greater than 0")

	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidK is returned when a search asks for fewer than one neighbor.
	ErrInvalidK = errors.New("k must be greater than 0")

	// ErrCorruptIndex is returned when an index file cannot be decoded.
	ErrCorruptIndex = errors.New("corrupt index data")
)
