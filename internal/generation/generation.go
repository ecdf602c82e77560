package generation

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
)

// ChatRequest is a single-turn chat completion request.
type ChatRequest struct {
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// ChatResponse is the text and token usage of one completion.
type ChatResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	StatusCode       int
}

// Tokens returns the total token usage, summing the parts when the provider
// did not report a total.
func (r *ChatResponse) Tokens() int {
	if r.TotalTokens > 0 {
		return r.TotalTokens
	}
	return r.PromptTokens + r.CompletionTokens
}

// ChatModel is a chat completion backend. Implementations perform exactly one
// remote call per Complete; retries are the caller's business.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Provider names the backend in audit records (deepseek, kimi, gemini).
	Provider() string

	// Endpoint is the remote operation recorded in audit records.
	Endpoint() string
}

// StatusCoder is implemented by client errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// statusCodeOf returns the HTTP status carried by err, or 500.
func statusCodeOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() > 0 {
		return sc.HTTPStatus()
	}
	return 500
}

// AuditLogger persists one record per external model attempt.
type AuditLogger interface {
	Record(ctx context.Context, entry *domain.APICallLog) error
}

// GenerationRequest describes the question to generate.
type GenerationRequest struct {
	RequestID      string
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	CustomPrompt   string
}

// GenerationResult is a validated generation with its usage.
type GenerationResult struct {
	Content  domain.QuestionContent
	Tokens   int
	Cost     float64
	Latency  time.Duration
	Attempts int
}

// ReviewRequest asks for a verdict on generated content.
type ReviewRequest struct {
	RequestID string
	Type      domain.QuestionType
	Content   domain.QuestionContent
}

// ReviewResult is a normalized verdict with its usage.
type ReviewResult struct {
	Verdict  domain.Verdict
	Tokens   int
	Cost     float64
	Latency  time.Duration
	Attempts int
}

// BatchReviewResult is the outcome of one item of a batch review. Exactly one
// of Result and Err is set.
type BatchReviewResult struct {
	RequestID string
	Result    *ReviewResult
	Err       error
}

// QuestionGenerator produces question content.
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// QuestionReviewer produces verdicts, singly or in batches.
type QuestionReviewer interface {
	Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error)
	ReviewBatch(ctx context.Context, reqs []ReviewRequest) []BatchReviewResult
}

// Pricing converts token usage to cost.
type Pricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// DefaultPricing is the flat rate applied to both providers.
var DefaultPricing = Pricing{InputPerToken: 0.00001, OutputPerToken: 0.00002}

// Cost returns the cost of a completion with the given usage.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*p.InputPerToken + float64(completionTokens)*p.OutputPerToken
}
