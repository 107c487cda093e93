package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for providers.
type MockProvider struct {
	Response string
	Err      error

	mu          sync.Mutex
	Calls       int
	LastRequest *CompletionRequest
}

// NewMockProvider creates a MockProvider that returns response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
