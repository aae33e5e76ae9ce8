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


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/gurukul/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LanguageModel implements ai.LanguageModel using OpenAI-compatible chat APIs.
type LanguageModel struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newLanguageModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newLanguageModel(config *ai.Config) (*LanguageModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(token(config)),
		openai.WithModel(config.GenerationModel),
		openai.WithHTTPClient(httpClient(config)),
	)
	if err != nil {
		return nil, err
	}

	return &LanguageModel{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-model"),
	}, nil
}

// NewLanguageModel creates a new language model using the provided configuration.
//
// Returns ai.LanguageModel interface to enforce abstraction.
func NewLanguageModel(config *ai.Config) (ai.LanguageModel, error) {
	return newLanguageModel(config)
}

// Generate sends prompt as a single user message and returns the reply text.
func (m *LanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.logger.Debug("generating completion", "promptLength", len(prompt))

	reply, err := llms.GenerateFromSinglePrompt(ctx, m.client, prompt, llms.WithTemperature(m.temperature))
	if err != nil {
		m.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	m.logger.Debug("generated completion", "replyLength", len(reply))
	return reply, nil
}
