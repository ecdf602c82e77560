package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"google.golang.org/genai"
)

const endpoint = "models.generateContent"

// modelAPI is the subset of genai.Models the client uses.
type modelAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Config configures a Client.
type Config struct {
	APIKey string
	Model  string
}

// Client is a Gemini chat model.
type Client struct {
	models modelAPI
	model  string
}

var _ generation.ChatModel = (*Client)(nil)

// NewClient creates a Gemini client backed by the Gemini API.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: gemini model cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Client{models: client.Models, model: cfg.Model}, nil
}

// Provider implements generation.ChatModel.
func (c *Client) Provider() string { return domain.ProviderGemini }

// Endpoint implements generation.ChatModel.
func (c *Client) Endpoint() string { return endpoint }

// Complete sends one generateContent request.
func (c *Client) Complete(ctx context.Context, req generation.ChatRequest) (*generation.ChatResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, mapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: %w: no candidates", generation.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("gemini: %w", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("gemini: %w: empty candidate", generation.ErrEmptyResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	out := &generation.ChatResponse{Text: text.String(), StatusCode: 200}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// StatusError carries the HTTP status of a failed Gemini call.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: HTTP %d: %s", e.Code, e.Message)
}

// HTTPStatus implements generation.StatusCoder.
func (e *StatusError) HTTPStatus() int { return e.Code }

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}

func ptr[T any](v T) *T { return &v }
