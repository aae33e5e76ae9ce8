package gemini

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/gurukul/ai"
	"github.com/poiesic/gurukul/ai/openai"
)

// ErrWrongBackend is returned by NewProvider for a config that selects another backend.
var ErrWrongBackend = errors.New("gemini provider requires the gemini backend")

// Provider implements ai.AIProvider with a Gemini language model and an
// OpenAI-compatible embedder.
type Provider struct {
	embedder ai.Embedder
	model    *LanguageModel
	logger   *slog.Logger
}

// NewProvider creates a provider for a config with Backend set to gemini.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendGemini {
		return nil, ErrWrongBackend
	}

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return nil, err
	}

	model, err := newLanguageModel(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// LanguageModel returns the Gemini generation service.
func (p *Provider) LanguageModel() ai.LanguageModel {
	return p.model
}

// Close is a no-op; the genai client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return nil
}
