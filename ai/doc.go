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


// Package ai provides abstractions for the AI services used by Gurukul.
//
// This package defines interfaces for the two model operations the query
// pipeline needs: text embeddings and single-prompt text generation. The
// enhancer and the tag index builder depend on these abstractions rather
// than on a concrete vendor SDK.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - LanguageModel: Completes a text prompt
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/gemini: Google Gemini through the genai SDK, with an
//     OpenAI-compatible embedder
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, gemini.NewLanguageModel, etc.)
// return INTERFACE types to prevent accidental coupling to a concrete
// implementation.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockLanguageModel)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Reset, ...).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "the nature of the self")
//	reply, err := provider.LanguageModel().Generate(ctx, prompt)
package ai
