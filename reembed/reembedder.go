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

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/tagindex"
)

// Config holds configuration for embedding a tag vocabulary.
type Config struct {
	// BatchSize is the number of tags sent in each embedding request
	BatchSize int

	// ReportInterval is how often to report progress (number of tags)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding request
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder turns a tag vocabulary into a tag index.
type Reembedder struct {
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, config.MaxRetries, config.RetryDelay),
	}
}

// Run embeds every tag and returns an index whose i-th vector belongs to tags[i].
// The index dimension is taken from the first batch.
func (r *Reembedder) Run(ctx context.Context, tags []string) (*tagindex.Index, error) {
	if len(tags) == 0 {
		return nil, ErrEmptyVocabulary
	}

	fmt.Fprintf(r.progress, "Embedding %d tags (batch size: %d)\n", len(tags), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(tags), r.config.ReportInterval, "tags")
	tracker.Start()

	var index *tagindex.Index
	iterator := NewTagIterator(tags, r.config.BatchSize)
	err := iterator.ForEach(ctx, func(offset int, batch []string) error {
		vectors, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch at tag %d: %w", offset, err)
		}

		if index == nil {
			index, err = tagindex.NewIndex(len(vectors[0]))
			if err != nil {
				return err
			}
		}
		if err := index.Add(vectors...); err != nil {
			return fmt.Errorf("batch at tag %d: %w", offset, err)
		}

		tracker.Update(offset + len(batch))
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Embedding complete. Indexed %d tags (dimension %d) in %v\n",
		index.Len(), index.Dim(), elapsed.Round(time.Millisecond))

	return index, nil
}
