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


package reembed

import "context"

const (
	// DefaultBatchSize is the default number of tags embedded per request
	DefaultBatchSize = 100
)

// TagIterator walks a tag vocabulary in fixed-size batches.
type TagIterator struct {
	tags      []string
	batchSize int
}

// NewTagIterator creates a new tag iterator.
// batchSize: number of tags per batch; non-positive values use DefaultBatchSize
func NewTagIterator(tags []string, batchSize int) *TagIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TagIterator{
		tags:      tags,
		batchSize: batchSize,
	}
}

// Len returns the number of tags.
func (it *TagIterator) Len() int {
	return len(it.tags)
}

// ForEach calls fn for each batch, in vocabulary order, passing the position
// of the batch's first tag. Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *TagIterator) ForEach(ctx context.Context, fn func(offset int, batch []string) error) error {
	for i := 0; i < len(it.tags); i += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := min(i+it.batchSize, len(it.tags))
		if err := fn(i, it.tags[i:end]); err != nil {
			return err
		}
	}
	return nil
}
