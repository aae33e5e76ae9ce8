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


package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend selects the service that answers LanguageModel requests.
type Backend string

const (
	// BackendOpenAI uses an OpenAI-compatible chat API (OpenAI, Ollama, vLLM, ...).
	BackendOpenAI Backend = "openai"

	// BackendGemini uses Google Gemini, either through Vertex AI or the Gemini API.
	BackendGemini Backend = "gemini"
)

const (
	// DefaultHost is the local OpenAI-compatible endpoint used when none is configured.
	DefaultHost = "http://localhost:11434/v1"

	// DefaultEmbeddingModel is the sentence embedding model the tag index is built with.
	DefaultEmbeddingModel = "all-minilm"

	// DefaultGenerationModel is the default OpenAI-compatible generation model.
	DefaultGenerationModel = "qwen2.5:3b"

	// DefaultGeminiModel is the default Gemini generation model.
	DefaultGeminiModel = "gemini-2.5-pro"

	// DefaultGeminiLocation is the Vertex AI location used when none is configured.
	DefaultGeminiLocation = "global"

	// DefaultTimeout bounds a single AI request.
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the generation service. Embeddings always use an
	// OpenAI-compatible API.
	// Default: BackendOpenAI
	Backend Backend `yaml:"backend"`

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `yaml:"embedding_host"`

	// GenerationHost is the base URL of the OpenAI-compatible generation API.
	// Ignored by the Gemini backend.
	GenerationHost string `yaml:"generation_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string `yaml:"embedding_model"`

	// GenerationModel is the model identifier to use for text generation.
	// Example: "qwen2.5:3b", "gpt-4o-mini", "gemini-2.5-pro"
	GenerationModel string `yaml:"generation_model"`

	// APIKey authenticates against the OpenAI-compatible API, or selects the
	// Gemini API (instead of Vertex AI) for the Gemini backend.
	// Empty means no authentication for local servers.
	APIKey string `yaml:"api_key"`

	// GeminiProject is the Google Cloud project for Vertex AI.
	GeminiProject string `yaml:"gemini_project"`

	// GeminiLocation is the Vertex AI location.
	// Default: "global"
	GeminiLocation string `yaml:"gemini_location"`

	// Temperature is the sampling temperature for generation.
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds a single request. Zero disables the client-side timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithGemini switches generation to Gemini on Vertex AI in the given project
// and location, using DefaultGeminiModel. Apply WithGenerationModel after
// WithGemini to pick another model.
func WithGemini(project, location string) ConfigOption {
	return func(c *Config) {
		c.Backend = BackendGemini
		c.GeminiProject = project
		c.GeminiLocation = location
		c.GenerationModel = DefaultGeminiModel
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and generation use the same host.
func DefaultConfig() *Config {
	return &Config{
		Backend:         BackendOpenAI,
		EmbeddingHost:   DefaultHost,
		GenerationHost:  DefaultHost,
		EmbeddingModel:  DefaultEmbeddingModel,
		GenerationModel: DefaultGenerationModel,
		Timeout:         DefaultTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithGemini("my-project", "global"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to OpenAI-compatible hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and fills in
// an empty backend and Gemini location.
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}
	c.Backend = Backend(strings.ToLower(string(c.Backend)))

	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	if c.Backend == BackendOpenAI {
		c.GenerationHost = withV1Suffix(c.GenerationHost)
	}
	if c.Backend == BackendGemini && c.GeminiLocation == "" {
		c.GeminiLocation = DefaultGeminiLocation
	}
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendOpenAI:
		if c.GenerationHost == "" {
			return errors.New("ai config: GenerationHost is required")
		}
	case BackendGemini:
		if c.APIKey == "" && c.GeminiProject == "" {
			return errors.New("ai config: GeminiProject or APIKey is required for the gemini backend")
		}
	default:
		return fmt.Errorf("ai config: unknown backend %q", c.Backend)
	}

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout must not be negative")
	}
	return nil
}
