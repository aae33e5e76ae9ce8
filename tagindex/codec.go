package tagindex

import (
	"fmt"
	"os"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/internal/atomicfile"
)

// indexMagic identifies the on-disk index format.
const indexMagic = "gurukul-tagindex/1"

// MarshalBinary encodes the index as magic, dimension, count, then every
// component as a fixed-width float32.
func (x *Index) MarshalBinary() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	count := len(x.data) / x.dim
	size := ord.String.Size(indexMagic) +
		varint.Int.Size(x.dim) +
		varint.Int.Size(count) +
		len(x.data)*raw.Float32.Size(0)

	buf := make([]byte, size)
	n := ord.String.Marshal(indexMagic, buf)
	n += varint.Int.Marshal(x.dim, buf[n:])
	n += varint.Int.Marshal(count, buf[n:])
	for _, f := range x.data {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf[:n], nil
}

// UnmarshalBinary replaces the index contents with decoded data.
func (x *Index) UnmarshalBinary(data []byte) error {
	magic, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if magic != indexMagic {
		return fmt.Errorf("%w: unknown format %q", ErrCorruptIndex, magic)
	}
	off := n

	dim, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil {
		return fmt.Errorf("%w: dimension: %w", ErrCorruptIndex, err)
	}
	off += n
	if dim <= 0 {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, ErrInvalidDimension)
	}

	count, n, err := varint.Int.Unmarshal(data[off:])
	if err != nil {
		return fmt.Errorf("%w: count: %w", ErrCorruptIndex, err)
	}
	off += n
	if count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrCorruptIndex, count)
	}

	// Bound dim and count by the payload before multiplying them.
	width := raw.Float32.Size(0)
	payload := len(data) - off
	if count > 0 {
		if dim > payload/width {
			return fmt.Errorf("%w: dimension %d exceeds payload of %d bytes", ErrCorruptIndex, dim, payload)
		}
		if count > payload/(width*dim) {
			return fmt.Errorf("%w: count %d exceeds payload of %d bytes", ErrCorruptIndex, count, payload)
		}
	}

	total := dim * count
	if want := off + total*width; want != len(data) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptIndex, want, len(data))
	}

	values := make([]float32, total)
	for i := range values {
		values[i], n, err = raw.Float32.Unmarshal(data[off:])
		if err != nil {
			return fmt.Errorf("%w: component %d: %w", ErrCorruptIndex, i, err)
		}
		off += n
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = dim
	x.data = values
	return nil
}

// SaveIndex writes the index to path, replacing any existing file atomically.
func SaveIndex(path string, x *Index) error {
	data, err := x.MarshalBinary()
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data)
}

// LoadIndex reads an index written by SaveIndex.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: tag index: %w", core.ErrAssetLoad, err)
	}
	x := &Index{}
	if err := x.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: tag index %s: %w", core.ErrAssetLoad, path, err)
	}
	return x, nil
}
