// Package notify renders and delivers keyword-match notifications. The
// transport is a pluggable provider; the default production provider posts
// to a transactional-email style webhook, and a mock provider backs tests
// and local runs.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// Provider sends one rendered notification to one address.
type Provider interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}

// Sender renders keyword matches into messages and hands them to a provider.
type Sender struct {
	provider Provider
	fromName string
	logger   *slog.Logger
}

var _ ports.Notifier = (*Sender)(nil)

// NewSender wires a provider.
func NewSender(provider Provider, fromName string, logger *slog.Logger) *Sender {
	return &Sender{provider: provider, fromName: fromName, logger: logger}
}

// Send renders and delivers one keyword match.
func (s *Sender) Send(ctx context.Context, sub domain.Subscriber, keyword string, msg domain.Message) error {
	subject := fmt.Sprintf("[%s] %s", keyword, msg.Title)
	body := renderBody(keyword, msg)

	if err := s.provider.Send(ctx, sub.Email, sub.Name, subject, body); err != nil {
		return fmt.Errorf("deliver to %s: %w", sub.Email, err)
	}
	return nil
}

func renderBody(keyword string, msg domain.Message) string {
	body := fmt.Sprintf("A new item matched your keyword %q.\n\n%s\n%s\n", keyword, msg.Title, msg.Link)
	if msg.Description != "" {
		body += "\n" + msg.Description + "\n"
	}
	body += fmt.Sprintf("\nSource: %s", msg.Source)
	return body
}
