package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/gurukul/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotPrompt string
	gotTemp   float32
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	if config != nil && config.Temperature != nil {
		f.gotTemp = *config.Temperature
	}
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: parts},
		}},
	}
}

func testConfig() *ai.Config {
	return ai.NewConfig(ai.WithGemini("gurukul-468712", ""), ai.WithTemperature(0.5))
}

func TestLanguageModel_Generate(t *testing.T) {
	fake := &fakeModels{resp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: `["ātman", `},
		&genai.Part{Text: `"jīva"]`},
	)}
	m := newWithModels(fake, testConfig())

	reply, err := m.Generate(context.Background(), "the nature of the self")
	require.NoError(t, err)

	assert.Equal(t, `["ātman", "jīva"]`, reply)
	assert.Equal(t, "gemini-2.5-pro", fake.gotModel)
	assert.Equal(t, "the nature of the self", fake.gotPrompt)
	assert.Equal(t, float32(0.5), fake.gotTemp)
}

func TestLanguageModel_Errors(t *testing.T) {
	cause := errors.New("permission denied")
	m := newWithModels(&fakeModels{err: cause}, testConfig())
	_, err := m.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, cause)

	m = newWithModels(&fakeModels{resp: &genai.GenerateContentResponse{}}, testConfig())
	_, err = m.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestLanguageModel_BlockedCandidate(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	m := newWithModels(&fakeModels{resp: resp}, testConfig())

	reply, err := m.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestClientConfig(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cc := clientConfig(cfg)
	assert.Equal(t, genai.BackendVertexAI, cc.Backend)
	assert.Equal(t, "gurukul-468712", cc.Project)
	assert.Equal(t, "global", cc.Location)

	cfg.APIKey = "key"
	cc = clientConfig(cfg)
	assert.Equal(t, genai.BackendGeminiAPI, cc.Backend)
	assert.Equal(t, "key", cc.APIKey)
	assert.Empty(t, cc.Project)
}

func TestNewProvider_WrongBackend(t *testing.T) {
	_, err := NewProvider(context.Background(), ai.DefaultConfig())
	assert.ErrorIs(t, err, ErrWrongBackend)
}
