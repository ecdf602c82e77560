package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/redact"
)

// attemptRecord captures one model call for the audit trail.
type attemptRecord struct {
	requestID string
	model     ChatModel
	request   ChatRequest
	response  *ChatResponse
	parsed    any
	latency   time.Duration
	pricing   Pricing
	err       error
}

func (a attemptRecord) entry() *domain.APICallLog {
	entry := &domain.APICallLog{
		RequestID:      a.requestID,
		Provider:       a.model.Provider(),
		Endpoint:       a.model.Endpoint(),
		ResponseTimeMS: a.latency.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}

	if b, err := json.Marshal(a.request); err == nil {
		entry.RequestData = b
	}

	if a.response != nil {
		entry.RequestTokens = a.response.PromptTokens
		entry.ResponseTokens = a.response.CompletionTokens
		entry.Cost = a.pricing.Cost(a.response.PromptTokens, a.response.CompletionTokens)
	}

	if a.err != nil {
		entry.StatusCode = statusCodeOf(a.err)
		entry.ErrorMessage = redact.Error(a.err)
		return entry
	}

	entry.StatusCode = 200
	if a.response != nil && a.response.StatusCode > 0 {
		entry.StatusCode = a.response.StatusCode
	}
	if a.parsed != nil {
		if b, err := json.Marshal(a.parsed); err == nil {
			entry.ResponseData = b
		}
	}
	return entry
}

// recordAttempt writes the audit entry for one attempt. Audit failures never
// fail the pipeline.
func recordAttempt(ctx context.Context, audit AuditLogger, logger *slog.Logger, rec attemptRecord) {
	if err := audit.Record(ctx, rec.entry()); err != nil {
		logger.WarnContext(ctx, "failed to record API call",
			"provider", rec.model.Provider(),
			"error", redact.Error(err))
	}
}

// NopAuditLogger discards audit entries.
type NopAuditLogger struct{}

// Record implements AuditLogger.
func (NopAuditLogger) Record(context.Context, *domain.APICallLog) error { return nil }
