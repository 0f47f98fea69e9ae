package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// WebhookProvider posts notifications as JSON to an HTTP endpoint with a
// bearer token. Transient failures are retried with backoff; 4xx responses
// other than 429 are treated as permanent.
type WebhookProvider struct {
	url      string
	token    string
	fromName string
	client   *http.Client
}

var _ Provider = (*WebhookProvider)(nil)

// NewWebhookProvider builds the provider.
func NewWebhookProvider(url, token, fromName string, client *http.Client) *WebhookProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebhookProvider{url: url, token: token, fromName: fromName, client: client}
}

type webhookPayload struct {
	To      webhookRecipient `json:"to"`
	From    webhookRecipient `json:"from"`
	Subject string           `json:"subject"`
	Body    string           `json:"body"`
}

type webhookRecipient struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Send posts one notification, retrying transient failures.
func (w *WebhookProvider) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	payload, err := json.Marshal(webhookPayload{
		To:      webhookRecipient{Email: toEmail, Name: toName},
		From:    webhookRecipient{Name: w.fromName},
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return retry.Do(
		func() error { return w.post(ctx, payload) },
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
	)
}

func (w *WebhookProvider) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("webhook returned %s: %s", resp.Status, detail)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return retry.Unrecoverable(err)
	}
	return err
}
