package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/gurukul/ai"
)

// BatchProcessor embeds batches of tags.
type BatchProcessor struct {
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding API call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process returns one embedding per tag, in input order. Every vector in
// the batch must have the same, non-zero dimension.
func (bp *BatchProcessor) Process(ctx context.Context, tags []string) ([][]float32, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, tags)
		if err != nil {
			return err
		}
		if len(embeddings) != len(tags) {
			return Permanent(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(tags), len(embeddings)))
		}
		return nil
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch of %d tags: %w", len(tags), err)
	}

	dim := len(embeddings[0])
	for i, vec := range embeddings {
		if len(vec) == 0 || len(vec) != dim {
			return nil, fmt.Errorf("tag %q: embedding has %d components, want %d", tags[i], len(vec), dim)
		}
	}
	return embeddings, nil
}
