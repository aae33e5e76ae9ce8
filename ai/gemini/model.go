package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/gurukul/ai"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when Gemini answers without any candidate.
var ErrEmptyResponse = errors.New("gemini returned no candidates")

// Models is the part of the genai client the language model uses.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// LanguageModel implements ai.LanguageModel on Gemini.
type LanguageModel struct {
	models      Models
	model       string
	temperature float32
	logger      *slog.Logger
}

// clientConfig maps the ai config onto a genai client config.
func clientConfig(config *ai.Config) *genai.ClientConfig {
	cc := &genai.ClientConfig{
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}
	if config.APIKey != "" {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = config.APIKey
		return cc
	}
	cc.Backend = genai.BackendVertexAI
	cc.Project = config.GeminiProject
	cc.Location = config.GeminiLocation
	return cc
}

// newLanguageModel is an internal constructor that returns the concrete type.
func newLanguageModel(ctx context.Context, config *ai.Config) (*LanguageModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientConfig(config))
	if err != nil {
		return nil, err
	}
	return newWithModels(client.Models, config), nil
}

// newWithModels builds a LanguageModel over any Models implementation.
func newWithModels(models Models, config *ai.Config) *LanguageModel {
	return &LanguageModel{
		models:      models,
		model:       config.GenerationModel,
		temperature: float32(config.Temperature),
		logger:      slog.Default().With("component", "gemini-model"),
	}
}

// NewLanguageModel creates a Gemini language model.
//
// Returns ai.LanguageModel interface to enforce abstraction.
func NewLanguageModel(ctx context.Context, config *ai.Config) (ai.LanguageModel, error) {
	return newLanguageModel(ctx, config)
}

// Generate sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (m *LanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.logger.Debug("generating completion", "model", m.model, "promptLength", len(prompt))

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.temperature),
	}
	resp, err := m.models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		m.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		m.logger.Warn("candidate without content", "finishReason", candidate.FinishReason)
		return "", nil
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
