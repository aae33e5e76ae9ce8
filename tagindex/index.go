// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package tagindex

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Neighbor is one search hit: the position of a stored vector and its
// squared L2 distance to the query.
type Neighbor struct {
	Index    int
	Distance float32
}

// Index is an exact (brute force) L2 vector index.
// Vectors are stored contiguously in insertion order.
// Search is safe for concurrent use; Add is not safe to call concurrently with Search.
type Index struct {
	dim  int
	data []float32
	mu   sync.RWMutex
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Index{dim: dim}, nil
}

// Dim returns the vector dimension.
func (x *Index) Dim() int {
	return x.dim
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.data) / x.dim
}

// Add appends vectors. Either all vectors are added or none are.
func (x *Index) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: vector %d has %d components, want %d", ErrDimensionMismatch, i, len(v), x.dim)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return nil
}

// Vector returns a copy of the i-th stored vector.
func (x *Index) Vector(i int) []float32 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return slices.Clone(x.data[i*x.dim : (i+1)*x.dim])
}

// Search returns up to k neighbors of query ordered by ascending distance.
// Ties are broken by insertion order. When k exceeds Len, all vectors are returned.
func (x *Index) Search(query []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d components, want %d", ErrDimensionMismatch, len(query), x.dim)
	}

	x.mu.RLock()
	n := len(x.data) / x.dim
	neighbors := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		neighbors[i] = Neighbor{
			Index:    i,
			Distance: squaredL2(query, x.data[i*x.dim:(i+1)*x.dim]),
		}
	}
	x.mu.RUnlock()

	slices.SortFunc(neighbors, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// squaredL2 calculates the squared Euclidean distance of two equal-length vectors.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
