package bus

import (
	"context"
	"fmt"
	"sync"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// Memory is an in-process bus used by tests and local development without a
// NATS server. Publish delivers synchronously to every subscribed group; a
// handler error is retried once immediately to mimic at-least-once delivery.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]ports.MessageHandler
}

var _ ports.Bus = (*Memory)(nil)

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{groups: map[string]ports.MessageHandler{}}
}

// Subscribe registers the handler for a named group. One handler per group.
func (m *Memory) Subscribe(_ context.Context, group string, handler ports.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[group]; ok {
		return fmt.Errorf("group %s already subscribed", group)
	}
	m.groups[group] = handler
	return nil
}

// Publish fans the message out to every group.
func (m *Memory) Publish(ctx context.Context, msg domain.Message) error {
	m.mu.RLock()
	handlers := make([]ports.MessageHandler, 0, len(m.groups))
	for _, h := range m.groups {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			// single immediate redelivery, mirroring the Nak path
			_ = h(ctx, msg)
		}
	}

	return nil
}
