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


package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/storage/redis"
	"gopkg.in/yaml.v3"
)

// Content store backends.
const (
	ContentFS  = "fs"
	ContentCOS = "cos"
)

// Memo cache backends.
const (
	CacheNone   = "none"
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheFS     = "fs"
)

// Environment variables read by ApplyEnv.
const (
	EnvRetrievalToken    = "GURUKUL_RETRIEVAL_TOKEN"
	EnvRetrievalEndpoint = "GURUKUL_RETRIEVAL_ENDPOINT"
	EnvDiscoveryEndpoint = "GOOGLE_DISCOVERY_ENGINE_ENDPOINT"
	EnvAPIKey            = "GURUKUL_API_KEY"
	EnvCOSSecretID       = "COS_SECRETID"
	EnvCOSSecretKey      = "COS_SECRETKEY"
	EnvRedisPassword     = "GURUKUL_REDIS_PASSWORD"
)

// Config is the complete configuration of a gurukul process.
type Config struct {
	Assets    AssetsConfig    `yaml:"assets"`
	AI        ai.Config       `yaml:"ai"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Content   ContentConfig   `yaml:"content"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Collector CollectorConfig `yaml:"collector"`
}

// AssetsConfig locates the precomputed enhancer assets.
type AssetsConfig struct {
	SynonymMap string `yaml:"synonym_map"`
	Tags       string `yaml:"tags"`
	Index      string `yaml:"index"`
}

// RetrievalConfig configures the retrieval backend client.
// Without an endpoint no collector is built.
type RetrievalConfig struct {
	Endpoint string `yaml:"endpoint"`

	// Token is a static bearer token.
	Token string `yaml:"token"`

	// UseDefaultCredentials obtains tokens from Google application default
	// credentials when Token is empty.
	UseDefaultCredentials bool `yaml:"use_default_credentials"`

	Timeout time.Duration `yaml:"timeout"`
}

// ContentConfig selects the content store.
type ContentConfig struct {
	Backend string `yaml:"backend"`

	// Root is the directory served by the fs backend.
	Root string `yaml:"root"`

	// BucketURL is the endpoint of the cos backend.
	BucketURL string `yaml:"bucket_url"`

	// Bucket is the bucket name that locators must carry. Empty accepts any.
	Bucket string `yaml:"bucket"`

	SecretID  string        `yaml:"secret_id"`
	SecretKey string        `yaml:"secret_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig selects the store behind the concept extraction memo.
type CacheConfig struct {
	Backend string `yaml:"backend"`

	// Path is the directory of the badger and fs backends.
	Path string `yaml:"path"`

	// InMemory runs the badger backend without persistence.
	InMemory bool `yaml:"in_memory"`

	// TTL bounds how long a reply is reused. Zero keeps replies forever.
	TTL time.Duration `yaml:"ttl"`

	Redis redis.Config `yaml:"redis"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CollectorConfig tunes enhancement and collection.
type CollectorConfig struct {
	PageSize    int           `yaml:"page_size"`
	MaxVerses   int           `yaml:"max_verses"`
	TopK        int           `yaml:"top_k"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			SynonymMap: "assets/amarakosha_thesaurus.json",
			Tags:       "assets/master_conceptual_tags.json",
			Index:      "assets/conceptual_tags.idx",
		},
		AI: *ai.DefaultConfig(),
		Retrieval: RetrievalConfig{
			Timeout: 30 * time.Second,
		},
		Content: ContentConfig{
			Backend: ContentFS,
			Root:    "corpus",
			Timeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheNone,
			Path:    "cache",
			Redis: redis.Config{
				Addr:   "localhost:6379",
				Prefix: redis.DefaultPrefix,
			},
		},
		Server: ServerConfig{
			Addr:            ":5001",
			ShutdownTimeout: 10 * time.Second,
		},
		Collector: CollectorConfig{
			PageSize:    20,
			MaxVerses:   5,
			TopK:        7,
			CallTimeout: 30 * time.Second,
		},
	}
}

// Load reads the file at path over the defaults, then applies the
// environment. Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Decode reads YAML from r over the defaults. Unknown keys are rejected.
// An empty document yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills secrets and endpoints from the environment. A variable
// that is set and non-empty replaces the file value.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Retrieval.Token, EnvRetrievalToken)
	set(&c.Retrieval.Endpoint, EnvRetrievalEndpoint, EnvDiscoveryEndpoint)
	set(&c.AI.APIKey, EnvAPIKey)
	set(&c.Content.SecretID, EnvCOSSecretID)
	set(&c.Content.SecretKey, EnvCOSSecretKey)
	set(&c.Cache.Redis.Password, EnvRedisPassword)
}

// Validate checks every section. It does not touch the filesystem or the network.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Assets.SynonymMap == "" {
		add("assets.synonym_map is required")
	}
	if c.Assets.Tags == "" {
		add("assets.tags is required")
	}
	if c.Assets.Index == "" {
		add("assets.index is required")
	}

	aiCfg := c.AI
	if err := aiCfg.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if c.Retrieval.Timeout < 0 {
		add("retrieval.timeout cannot be negative")
	}

	switch c.Content.Backend {
	case ContentFS:
		if c.Content.Root == "" {
			add("content.root is required for the fs backend")
		}
	case ContentCOS:
		if c.Content.BucketURL == "" {
			add("content.bucket_url is required for the cos backend")
		}
	default:
		add("unknown content.backend %q", c.Content.Backend)
	}
	if c.Content.Timeout < 0 {
		add("content.timeout cannot be negative")
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheBadger:
		if c.Cache.Path == "" && !c.Cache.InMemory {
			add("cache.path is required for the badger backend")
		}
	case CacheFS:
		if c.Cache.Path == "" {
			add("cache.path is required for the fs backend")
		}
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			add("cache.redis.addr is required for the redis backend")
		}
	default:
		add("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		add("cache.ttl cannot be negative")
	}

	if c.Server.Addr == "" {
		add("server.addr is required")
	}
	if c.Collector.PageSize <= 0 {
		add("collector.page_size must be greater than 0")
	}
	if c.Collector.MaxVerses <= 0 {
		add("collector.max_verses must be greater than 0")
	}
	if c.Collector.TopK <= 0 {
		add("collector.top_k must be greater than 0")
	}
	if c.Collector.CallTimeout < 0 {
		add("collector.call_timeout cannot be negative")
	}

	return errors.Join(errs...)
}
