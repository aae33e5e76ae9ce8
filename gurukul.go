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


package gurukul

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/ai/gemini"
	"github.com/poiesic/gurukul/ai/openai"
	"github.com/poiesic/gurukul/cache"
	"github.com/poiesic/gurukul/collector"
	"github.com/poiesic/gurukul/config"
	"github.com/poiesic/gurukul/content"
	"github.com/poiesic/gurukul/enhance"
	"github.com/poiesic/gurukul/retrieval"
	"github.com/poiesic/gurukul/storage"
	"github.com/poiesic/gurukul/storage/badger"
	fsstore "github.com/poiesic/gurukul/storage/fs"
	"github.com/poiesic/gurukul/storage/redis"
)

// ErrRetrievalCredentials is returned when a retrieval endpoint is
// configured without a token or application default credentials.
var ErrRetrievalCredentials = errors.New("retrieval endpoint configured without credentials")

// Runtime holds everything a gurukul process shares across requests:
// the loaded assets, the AI provider, the memo store, the enhancer and,
// when a retrieval backend is configured, the collector.
// Build it once with NewRuntime and Close it at exit.
type Runtime struct {
	config    *config.Config
	assets    *enhance.Assets
	provider  ai.AIProvider
	memo      storage.Store
	enhancer  *enhance.Enhancer
	collector *collector.Collector
	logger    *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	assets   *enhance.Assets
	provider ai.AIProvider
	memo     storage.Store
	backend  retrieval.Backend
	store    content.Store
	logger   *slog.Logger
}

// WithAssets uses assets instead of loading the files named in the config.
func WithAssets(assets *enhance.Assets) RuntimeOption {
	return func(o *runtimeOptions) {
		o.assets = assets
	}
}

// WithProvider uses provider instead of building one from the config.
// The Runtime takes ownership and closes it.
func WithProvider(provider ai.AIProvider) RuntimeOption {
	return func(o *runtimeOptions) {
		o.provider = provider
	}
}

// WithMemoStore uses store for the concept extraction memo regardless of
// the configured cache backend. The Runtime takes ownership and closes it.
func WithMemoStore(store storage.Store) RuntimeOption {
	return func(o *runtimeOptions) {
		o.memo = store
	}
}

// WithBackend uses backend instead of the configured retrieval endpoint.
func WithBackend(backend retrieval.Backend) RuntimeOption {
	return func(o *runtimeOptions) {
		o.backend = backend
	}
}

// WithContentStore uses store instead of the configured content backend.
func WithContentStore(store content.Store) RuntimeOption {
	return func(o *runtimeOptions) {
		o.store = store
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(o *runtimeOptions) {
		o.logger = logger
	}
}

// NewRuntime validates cfg and builds every component in dependency order.
// On failure everything opened so far is closed.
func NewRuntime(ctx context.Context, cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	options := &runtimeOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		closeAll(options.logger, options.provider, options.memo)
		return nil, err
	}

	r := &Runtime{
		config:   cfg,
		provider: options.provider,
		memo:     options.memo,
		logger:   options.logger.With("component", "runtime"),
	}

	if err := r.open(ctx, options); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) open(ctx context.Context, options *runtimeOptions) error {
	cfg := r.config

	// Assets
	r.assets = options.assets
	if r.assets == nil {
		assets, err := enhance.LoadAssets(cfg.Assets.SynonymMap, cfg.Assets.Tags, cfg.Assets.Index)
		if err != nil {
			return err
		}
		r.assets = assets
	}
	r.logger.Info("assets loaded",
		"synonyms", len(r.assets.SynonymMap),
		"tags", len(r.assets.Tags),
		"dimension", r.assets.Index.Dim())

	// AI provider
	if r.provider == nil {
		provider, err := NewProvider(ctx, &cfg.AI)
		if err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
		r.provider = provider
	}

	// Memo
	if r.memo == nil {
		memo, err := openMemo(cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening memo store: %w", err)
		}
		r.memo = memo
	}
	provider := r.provider
	if r.memo != nil {
		provider = &memoProvider{
			AIProvider: r.provider,
			model:      cache.NewLanguageModel(r.provider.LanguageModel(), r.memo, cfg.Cache.TTL),
		}
	}

	// Enhancer
	enhancer, err := enhance.New(r.assets, provider,
		enhance.WithTopK(cfg.Collector.TopK),
		enhance.WithLogger(options.logger))
	if err != nil {
		return err
	}
	r.enhancer = enhancer

	// Collector
	backend := options.backend
	if backend == nil && cfg.Retrieval.Endpoint != "" {
		client, err := newRetrievalClient(ctx, cfg.Retrieval, options.logger)
		if err != nil {
			return err
		}
		backend = client
	}
	if backend == nil {
		r.logger.Warn("no retrieval endpoint configured, collection disabled")
		return nil
	}

	store := options.store
	if store == nil {
		s, err := openContent(cfg.Content, options.logger)
		if err != nil {
			return fmt.Errorf("opening content store: %w", err)
		}
		store = s
	}

	coll, err := collector.New(enhancer, backend, store,
		collector.WithBucket(cfg.Content.Bucket),
		collector.WithPageSize(cfg.Collector.PageSize),
		collector.WithMaxVerses(cfg.Collector.MaxVerses),
		collector.WithCallTimeout(cfg.Collector.CallTimeout),
		collector.WithLogger(options.logger))
	if err != nil {
		return err
	}
	r.collector = coll
	return nil
}

// NewProvider builds the AI provider selected by cfg.Backend.
func NewProvider(ctx context.Context, cfg *ai.Config) (ai.AIProvider, error) {
	c := *cfg
	c.Normalize()
	switch c.Backend {
	case ai.BackendGemini:
		return gemini.NewProvider(ctx, &c)
	default:
		return openai.NewProvider(&c)
	}
}

func openMemo(cfg config.CacheConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.CacheBadger:
		return badger.Open(cfg.Path, cfg.InMemory)
	case config.CacheFS:
		return fsstore.Open(cfg.Path)
	case config.CacheRedis:
		return redis.Open(cfg.Redis)
	default:
		return nil, nil
	}
}

func newRetrievalClient(ctx context.Context, cfg config.RetrievalConfig, logger *slog.Logger) (*retrieval.Client, error) {
	opts := []retrieval.Option{
		retrieval.WithTimeout(cfg.Timeout),
		retrieval.WithLogger(logger),
	}
	switch {
	case cfg.Token != "":
		opts = append(opts, retrieval.WithStaticToken(cfg.Token))
	case cfg.UseDefaultCredentials:
		ts, err := retrieval.DefaultTokenSource(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, retrieval.WithTokenSource(ts))
	default:
		return nil, ErrRetrievalCredentials
	}
	return retrieval.NewClient(cfg.Endpoint, opts...)
}

func openContent(cfg config.ContentConfig, logger *slog.Logger) (content.Store, error) {
	switch cfg.Backend {
	case config.ContentCOS:
		return content.NewCOSStore(cfg.BucketURL,
			content.WithCredentials(cfg.SecretID, cfg.SecretKey),
			content.WithCOSTimeout(cfg.Timeout),
			content.WithCOSLogger(logger))
	default:
		return content.NewFileStore(cfg.Root)
	}
}

// memoProvider replaces the language model of an AIProvider with a
// memoizing one.
type memoProvider struct {
	ai.AIProvider
	model ai.LanguageModel
}

func (p *memoProvider) LanguageModel() ai.LanguageModel {
	return p.model
}

// Close releases the provider and the memo store.
func (r *Runtime) Close() error {
	return closeAll(r.logger, r.provider, r.memo)
}

func closeAll(logger *slog.Logger, provider ai.AIProvider, memo storage.Store) error {
	var errs []error
	if provider != nil {
		if err := provider.Close(); err != nil {
			logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if memo != nil {
		if err := memo.Close(); err != nil {
			logger.Error("error closing memo store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() *config.Config {
	return r.config
}

// Assets returns the loaded enhancer assets.
func (r *Runtime) Assets() *enhance.Assets {
	return r.assets
}

// Provider returns the AI provider without the memo.
func (r *Runtime) Provider() ai.AIProvider {
	return r.provider
}

// Enhancer returns the query enhancer.
func (r *Runtime) Enhancer() *enhance.Enhancer {
	return r.enhancer
}

// Collector returns the collector, or nil when no retrieval backend is configured.
func (r *Runtime) Collector() *collector.Collector {
	return r.collector
}

// NewServer returns the HTTP surface of the collector.
func (r *Runtime) NewServer() *collector.Server {
	opts := []collector.ServerOption{
		collector.WithAssetStats(collector.AssetStats{
			Synonyms: len(r.assets.SynonymMap),
			Tags:     len(r.assets.Tags),
		}),
		collector.WithServerLogger(r.logger),
	}
	if r.collector == nil {
		return collector.NewServer(nil, opts...)
	}
	return collector.NewServer(r.collector, opts...)
}
