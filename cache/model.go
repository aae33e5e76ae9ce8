// Package cache memoizes language model replies in a storage.Store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// keyPrefix namespaces model replies in a shared store.
const keyPrefix = "llm:"

// Key returns the store key for prompt.
func Key(prompt string) string {
	return fmt.Sprintf("%s%016x", keyPrefix, uint64(core.IDFromContent(prompt)))
}

// LanguageModel wraps an ai.LanguageModel and remembers its replies.
// Store failures are logged and bypassed; they never fail a request.
type LanguageModel struct {
	inner   ai.LanguageModel
	store   storage.Store
	ttl     time.Duration
	lookups metric.Int64Counter
	logger  *slog.Logger
}

var _ ai.LanguageModel = (*LanguageModel)(nil)

// NewLanguageModel wraps inner with a memo in store. A positive ttl bounds
// how long a reply is reused.
func NewLanguageModel(inner ai.LanguageModel, store storage.Store, ttl time.Duration) *LanguageModel {
	lookups, _ := otel.Meter("github.com/poiesic/gurukul/cache").Int64Counter(
		"gurukul.cache.lookups",
		metric.WithDescription("Memo lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	return &LanguageModel{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		lookups: lookups,
		logger:  slog.Default().With("component", "llm-cache"),
	}
}

// Generate returns the remembered reply for prompt, or asks the wrapped
// model and remembers its reply. Errors from the wrapped model are not
// remembered.
func (m *LanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	key := Key(prompt)

	data, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		reply, decodeErr := storage.UnmarshalString(data)
		if decodeErr == nil {
			m.record(ctx, "hit")
			m.logger.Debug("memo hit", "key", key)
			return reply, nil
		}
		m.record(ctx, "error")
		m.logger.Warn("discarding undecodable memo entry", "key", key, "err", decodeErr)
	case errors.Is(err, storage.ErrNotFound):
		m.record(ctx, "miss")
	default:
		m.record(ctx, "error")
		m.logger.Warn("memo lookup failed", "key", key, "err", err)
	}

	reply, err := m.inner.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := m.store.Set(ctx, key, storage.MarshalString(reply), m.ttl); err != nil {
		m.logger.Warn("memo store failed", "key", key, "err", err)
	}
	return reply, nil
}

func (m *LanguageModel) record(ctx context.Context, result string) {
	if m.lookups != nil {
		m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
