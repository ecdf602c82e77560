package domain

import (
	"encoding/json"
	"time"
)

// Providers recorded in the audit log.
const (
	ProviderDeepSeek = "deepseek"
	ProviderKimi     = "kimi"
	ProviderGemini   = "gemini"
)

// APICallLog is one audit record per external model attempt, successful or not.
type APICallLog struct {
	ID             int64           `json:"id"`
	RequestID      string          `json:"request_id"`
	Provider       string          `json:"provider"`
	Endpoint       string          `json:"endpoint"`
	RequestData    json.RawMessage `json:"request_data,omitempty"`
	ResponseData   json.RawMessage `json:"response_data,omitempty"`
	RequestTokens  int             `json:"request_tokens"`
	ResponseTokens int             `json:"response_tokens"`
	ResponseTimeMS int64           `json:"response_time_ms"`
	StatusCode     int             `json:"status_code"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Cost           float64         `json:"cost"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Failed reports whether the attempt ended in an error.
func (l *APICallLog) Failed() bool {
	return l.ErrorMessage != ""
}
