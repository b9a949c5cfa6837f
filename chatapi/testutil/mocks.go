package testutil

import (
	"context"
	"sync"

	"chatline/model"
)

// MockBackend implements model.Backend for testing
type MockBackend struct {
	// Configurable responses
	ChatFunc         func(ctx context.Context, message, sessionID string) (*model.Reply, error)
	ResetSessionFunc func(ctx context.Context, sessionID string) error

	mu         sync.Mutex
	chatCalls  []ChatCall
	resetCalls []string
}

// ChatCall records one Chat invocation
type ChatCall struct {
	Message   string
	SessionID string
}

// NewMockBackend creates a mock that replies "Mock response" and hands out
// sessionID on every exchange.
func NewMockBackend(sessionID string) *MockBackend {
	return &MockBackend{
		ChatFunc: func(ctx context.Context, message, _ string) (*model.Reply, error) {
			return &model.Reply{Text: "Mock response", SessionID: sessionID}, nil
		},
		ResetSessionFunc: func(ctx context.Context, sessionID string) error {
			return nil
		},
	}
}

func (m *MockBackend) Chat(ctx context.Context, message, sessionID string) (*model.Reply, error) {
	m.mu.Lock()
	m.chatCalls = append(m.chatCalls, ChatCall{Message: message, SessionID: sessionID})
	m.mu.Unlock()
	return m.ChatFunc(ctx, message, sessionID)
}

func (m *MockBackend) ResetSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.resetCalls = append(m.resetCalls, sessionID)
	m.mu.Unlock()
	return m.ResetSessionFunc(ctx, sessionID)
}

func (m *MockBackend) ChatCalls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCall(nil), m.chatCalls...)
}

func (m *MockBackend) ResetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resetCalls...)
}

var _ model.Backend = (*MockBackend)(nil)
