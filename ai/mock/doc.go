// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.LanguageModel,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	model := mock.NewMockLanguageModel()
//	model.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return `["dharma"]`, nil
//	}
//
//	// Check call counts
//	count := model.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockLanguageModel: Returns a fixed reply (an empty JSON array by default)
//   - MockProvider: Aggregates mock embedder and language model
package mock
