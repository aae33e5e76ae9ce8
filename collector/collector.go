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


package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/gurukul/content"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/retrieval"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultPageSize is the number of candidates requested from the backend.
	DefaultPageSize = 20

	// DefaultMaxVerses is the number of top candidates whose text is fetched.
	DefaultMaxVerses = 5

	// DefaultCallTimeout bounds each external call of a collection.
	DefaultCallTimeout = 30 * time.Second

	// DefaultSessionID is used when a request carries no session.
	DefaultSessionID = "api-session"

	// Version is reported in the metadata of every result.
	Version = "v2.0-go"
)

// QueryEnhancer turns a question into an enhanced query.
// *enhance.Enhancer satisfies it.
type QueryEnhancer interface {
	Enhance(ctx context.Context, query string) (*core.EnhancedQuery, error)
}

// Collector runs collections. It is safe for concurrent use; each Collect
// call runs its stages sequentially.
type Collector struct {
	enhancer    QueryEnhancer
	backend     retrieval.Backend
	store       content.Store
	bucket      string
	pageSize    int
	maxVerses   int
	callTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger

	skips    metric.Int64Counter
	failures metric.Int64Counter
}

// Option configures a Collector.
type Option func(*Collector) error

// WithBucket sets the bucket whose locators resolve to content keys.
// Default is "", which accepts any bucket.
func WithBucket(bucket string) Option {
	return func(c *Collector) error {
		c.bucket = bucket
		return nil
	}
}

// WithPageSize sets how many candidates are requested from the backend.
func WithPageSize(n int) Option {
	return func(c *Collector) error {
		if n <= 0 {
			return ErrInvalidPageSize
		}
		c.pageSize = n
		return nil
	}
}

// WithMaxVerses sets how many top candidates are fetched.
func WithMaxVerses(n int) Option {
	return func(c *Collector) error {
		if n <= 0 {
			return ErrInvalidMaxVerses
		}
		c.maxVerses = n
		return nil
	}
}

// WithCallTimeout bounds every external call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Collector) error {
		if d < 0 {
			return fmt.Errorf("call timeout cannot be negative: %v", d)
		}
		c.callTimeout = d
		return nil
	}
}

// WithClock sets the source of collection timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) error {
		if now == nil {
			now = time.Now
		}
		c.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "collector")
		return nil
	}
}

// New creates a Collector.
func New(enhancer QueryEnhancer, backend retrieval.Backend, store content.Store, opts ...Option) (*Collector, error) {
	if enhancer == nil {
		return nil, ErrEnhancerRequired
	}
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if store == nil {
		return nil, ErrContentStoreRequired
	}

	meter := otel.Meter("github.com/poiesic/gurukul/collector")
	skips, _ := meter.Int64Counter(
		"gurukul.collector.skipped_results",
		metric.WithDescription("Retrieval results dropped before content fetch, by reason"),
	)
	failures, _ := meter.Int64Counter(
		"gurukul.collector.failures",
		metric.WithDescription("Failed collections, by stage"),
	)

	c := &Collector{
		enhancer:    enhancer,
		backend:     backend,
		store:       store,
		pageSize:    DefaultPageSize,
		maxVerses:   DefaultMaxVerses,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		logger:      slog.Default().With("component", "collector"),
		skips:       skips,
		failures:    failures,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Collect answers question. An empty sessionID is replaced by
// DefaultSessionID. Results without a locator or whose object does not
// exist are skipped; any other failure fails the whole collection.
func (c *Collector) Collect(ctx context.Context, question, sessionID string) (*core.CollectedResult, error) {
	if err := core.ValidateQuery(question); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	logger := c.logger.With("session", sessionID)

	// 1. Enhance
	enhanced, err := c.enhance(ctx, question)
	if err != nil {
		c.fail(ctx, "enhance")
		logger.Error("query enhancement failed", "err", err)
		return nil, fmt.Errorf("enhancing query: %w", err)
	}

	// 2. Retrieve
	resp, err := c.search(ctx, enhanced)
	if err != nil {
		c.fail(ctx, "retrieval")
		logger.Error("retrieval failed", "err", err)
		return nil, fmt.Errorf("querying retrieval backend: %w", err)
	}
	logger.Debug("received candidates", "count", len(resp.Results))

	// 3. Take the top candidates in backend order
	candidates := resp.Results
	if len(candidates) > c.maxVerses {
		candidates = candidates[:c.maxVerses]
	}

	// 4. Fetch
	verses, err := c.fetchVerses(ctx, logger, candidates)
	if err != nil {
		c.fail(ctx, "content")
		return nil, err
	}
	logger.Info("collection complete", "candidates", len(resp.Results), "verses", len(verses))

	// 5. Assemble
	return &core.CollectedResult{
		SessionID: sessionID,
		Query: core.QueryInfo{
			Original: question,
			Enhanced: enhanced,
		},
		Results: core.ResultSet{
			TotalVerses: len(verses),
			Verses:      verses,
		},
		Metadata: core.CollectionMetadata{
			CollectionTime:   c.now(),
			CollectorVersion: Version,
		},
	}, nil
}

func (c *Collector) enhance(ctx context.Context, question string) (*core.EnhancedQuery, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	return c.enhancer.Enhance(callCtx, question)
}

func (c *Collector) search(ctx context.Context, enhanced *core.EnhancedQuery) (*retrieval.Response, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	return c.backend.Search(callCtx, &retrieval.Request{
		Query:    enhanced.FinalQuery,
		PageSize: c.pageSize,
		Filter:   enhanced.Filter(),
	})
}

func (c *Collector) fetchVerses(ctx context.Context, logger *slog.Logger, candidates []retrieval.Result) ([]core.Verse, error) {
	verses := make([]core.Verse, 0, len(candidates))
	for _, candidate := range candidates {
		link := candidate.Link()
		if link == "" {
			logger.Warn("skipping result without content locator", "title", candidate.Title())
			c.skip(ctx, "missing_locator")
			continue
		}
		key := content.ResolveLocator(link, c.bucket)

		exists, err := c.exists(ctx, key)
		if err != nil {
			logger.Error("content existence check failed", "key", key, "err", err)
			return nil, fmt.Errorf("checking content %s: %w", key, err)
		}
		if !exists {
			logger.Warn("content not found", "key", key)
			c.skip(ctx, "not_found")
			continue
		}

		text, err := c.fetch(ctx, key)
		if err != nil {
			logger.Error("content fetch failed", "key", key, "err", err)
			return nil, fmt.Errorf("fetching content %s: %w", key, err)
		}

		verses = append(verses, core.Verse{
			ID:      candidate.Title(),
			Content: text,
			Source:  key,
		})
	}
	return verses, nil
}

func (c *Collector) exists(ctx context.Context, key string) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	return c.store.Exists(callCtx, key)
}

func (c *Collector) fetch(ctx context.Context, key string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	return c.store.Fetch(callCtx, key)
}

func (c *Collector) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Collector) skip(ctx context.Context, reason string) {
	if c.skips != nil {
		c.skips.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (c *Collector) fail(ctx context.Context, stage string) {
	if c.failures != nil {
		c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
}
