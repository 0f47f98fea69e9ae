package notify

import (
	"context"
	"log/slog"
	"sync"
)

// MockProvider records notifications instead of delivering them. It backs
// tests and the "mock" provider setting for local runs.
type MockProvider struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []MockNotification
}

// MockNotification is one recorded delivery.
type MockNotification struct {
	ToEmail string
	ToName  string
	Subject string
	Body    string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider builds an empty recorder.
func NewMockProvider(logger *slog.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

// Send records the notification and logs it.
func (m *MockProvider) Send(_ context.Context, toEmail, toName, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, MockNotification{ToEmail: toEmail, ToName: toName, Subject: subject, Body: body})
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("mock notification", "to", toEmail, "subject", subject)
	}
	return nil
}

// Sent returns a copy of everything recorded so far.
func (m *MockProvider) Sent() []MockNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockNotification, len(m.sent))
	copy(out, m.sent)
	return out
}
