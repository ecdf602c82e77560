package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	return f.resp, f.err
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), Config{Model: "gemini-2.0-flash"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewClient(context.Background(), Config{APIKey: "key"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	t.Run("joins parts and reports usage", func(t *testing.T) {
		fake := &fakeModels{resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: `{"passed":`}, {Text: ` true}`}}},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     5,
				CandidatesTokenCount: 7,
				TotalTokenCount:      12,
			},
		}}
		c := &Client{models: fake, model: "gemini-2.0-flash"}

		resp, err := c.Complete(context.Background(), generation.ChatRequest{
			System:      "strict",
			Prompt:      "review",
			MaxTokens:   1024,
			Temperature: 0.3,
		})
		require.NoError(t, err)
		assert.Equal(t, `{"passed": true}`, resp.Text)
		assert.Equal(t, 5, resp.PromptTokens)
		assert.Equal(t, 7, resp.CompletionTokens)
		assert.Equal(t, 12, resp.TotalTokens)

		assert.Equal(t, "gemini-2.0-flash", fake.model)
		require.NotNil(t, fake.config.SystemInstruction)
		assert.Equal(t, int32(1024), fake.config.MaxOutputTokens)
		assert.InDelta(t, 0.3, *fake.config.Temperature, 1e-6)
		assert.Equal(t, domain.ProviderGemini, c.Provider())
	})

	t.Run("safety block", func(t *testing.T) {
		fake := &fakeModels{resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}}
		c := &Client{models: fake, model: "m"}

		_, err := c.Complete(context.Background(), generation.ChatRequest{Prompt: "x"})
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("no candidates", func(t *testing.T) {
		c := &Client{models: &fakeModels{resp: &genai.GenerateContentResponse{}}, model: "m"}

		_, err := c.Complete(context.Background(), generation.ChatRequest{Prompt: "x"})
		assert.ErrorIs(t, err, generation.ErrEmptyResponse)
	})

	t.Run("api error keeps status", func(t *testing.T) {
		fake := &fakeModels{err: genai.APIError{Code: 429, Message: "quota exceeded"}}
		c := &Client{models: fake, model: "m"}

		_, err := c.Complete(context.Background(), generation.ChatRequest{Prompt: "x"})
		var sc generation.StatusCoder
		require.True(t, errors.As(err, &sc))
		assert.Equal(t, 429, sc.HTTPStatus())
	})
}
