package mock

import (
	"context"
	"sync"
)

// DefaultReply is what MockLanguageModel answers when no behavior is injected.
const DefaultReply = "[]"

// MockLanguageModel is a test double for ai.LanguageModel.
type MockLanguageModel struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns Reply (or DefaultReply when Reply is empty).
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// Reply is the canned answer used when GenerateFunc is nil.
	Reply string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockLanguageModel creates a mock language model with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockLanguageModel().
func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{}
}

// Generate records the prompt and returns the injected or canned reply.
func (m *MockLanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return DefaultReply, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockLanguageModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns every prompt received so far, in order.
func (m *MockLanguageModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears the call count, recorded prompts, and custom behavior.
func (m *MockLanguageModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
	m.Reply = ""
}
