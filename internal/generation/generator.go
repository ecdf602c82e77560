package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/redact"
)

// GeneratorConfig tunes the generation adapter.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64
	Retry       RetryPolicy
	Pricing     Pricing
}

// DefaultGeneratorConfig returns the production defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxTokens:   4096,
		Temperature: 0.7,
		Retry:       DefaultRetryPolicy,
		Pricing:     DefaultPricing,
	}
}

// Generator produces question content from a ChatModel.
type Generator struct {
	model  ChatModel
	audit  AuditLogger
	config GeneratorConfig
	logger *slog.Logger
	sleep  sleepFunc
}

var _ QuestionGenerator = (*Generator)(nil)

// NewGenerator creates a Generator. A nil logger falls back to slog.Default.
func NewGenerator(model ChatModel, audit AuditLogger, config GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: chat model cannot be nil", ErrInvalidConfig)
	}
	if audit == nil {
		return nil, fmt.Errorf("%w: audit logger cannot be nil", ErrInvalidConfig)
	}
	if config.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		model:  model,
		audit:  audit,
		config: config,
		logger: logger.With("component", "generator", "provider", model.Provider()),
		sleep:  sleepContext,
	}, nil
}

// Generate renders the prompt for req and asks the model for question content,
// retrying failed attempts per the configured policy.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	prompt, err := RenderGenerationPrompt(req)
	if err != nil {
		return nil, err
	}
	chatReq := ChatRequest{
		System:      generationSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	log := g.logger.With("request_id", req.RequestID)
	attempts := g.config.Retry.Attempts()
	var lastErr error
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := g.config.Retry.Backoff(attempt - 1)
			log.InfoContext(ctx, "retrying question generation",
				"attempt", attempt,
				"delay", delay)
			if err := g.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: cancelled while waiting to retry: %w", ErrGenerationFailed, err)
			}
		}

		made = attempt
		result, err := g.attempt(ctx, req, chatReq)
		if err == nil {
			result.Attempts = attempt
			log.InfoContext(ctx, "question generated",
				"attempt", attempt,
				"tokens", result.Tokens,
				"latency_ms", result.Latency.Milliseconds())
			return result, nil
		}

		lastErr = err
		log.WarnContext(ctx, "question generation attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", redact.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrGenerationFailed, made, lastErr)
}

func (g *Generator) attempt(ctx context.Context, req GenerationRequest, chatReq ChatRequest) (*GenerationResult, error) {
	start := time.Now()
	resp, err := g.model.Complete(ctx, chatReq)
	latency := time.Since(start)

	var content *domain.QuestionContent
	if err == nil {
		if resp == nil || resp.Text == "" {
			err = ErrEmptyResponse
		} else {
			content, err = ParseQuestionContent(resp.Text, req.Type)
		}
	}

	rec := attemptRecord{
		requestID: req.RequestID,
		model:     g.model,
		request:   chatReq,
		response:  resp,
		latency:   latency,
		pricing:   g.config.Pricing,
		err:       err,
	}
	if content != nil {
		rec.parsed = content
	}
	recordAttempt(ctx, g.audit, g.logger, rec)

	if err != nil {
		return nil, err
	}

	return &GenerationResult{
		Content: *content,
		Tokens:  resp.Tokens(),
		Cost:    g.config.Pricing.Cost(resp.PromptTokens, resp.CompletionTokens),
		Latency: latency,
	}, nil
}
