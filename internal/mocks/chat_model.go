package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/qforge/internal/generation"
)

// MockChatModel implements generation.ChatModel for testing.
type MockChatModel struct {
	// CompleteFn allows test cases to mock the Complete behavior
	CompleteFn func(ctx context.Context, req generation.ChatRequest) (*generation.ChatResponse, error)

	// Default response values
	Response *generation.ChatResponse
	Err      error

	ProviderName string
	EndpointName string

	mu       sync.Mutex
	requests []generation.ChatRequest
}

// NewMockChatModelWithText creates a MockChatModel that always replies with text.
func NewMockChatModelWithText(text string) *MockChatModel {
	return &MockChatModel{
		Response: &generation.ChatResponse{
			Text:             text,
			PromptTokens:     100,
			CompletionTokens: 200,
			TotalTokens:      300,
			StatusCode:       200,
		},
	}
}

// Complete implements generation.ChatModel.
func (m *MockChatModel) Complete(ctx context.Context, req generation.ChatRequest) (*generation.ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	return m.Response, m.Err
}

// Provider implements generation.ChatModel.
func (m *MockChatModel) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Endpoint implements generation.ChatModel.
func (m *MockChatModel) Endpoint() string {
	if m.EndpointName == "" {
		return "/chat/completions"
	}
	return m.EndpointName
}

// Calls returns the number of Complete calls.
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the requests seen so far.
func (m *MockChatModel) Requests() []generation.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.ChatRequest(nil), m.requests...)
}
