package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// Groq calls the Groq chat-completions API (OpenAI wire format).
type Groq struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Analyzer = (*Groq)(nil)

// NewGroq builds the provider from config.
func NewGroq(cfg config.GroqConfig, logger *slog.Logger) *Groq {
	return &Groq{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type groqRequest struct {
	Model    string        `json:"model"`
	Messages []groqMessage `json:"messages"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// AnalyzeBatch sends one prompt for the whole batch. Any failure yields a
// sentinel batch of the same length.
func (g *Groq) AnalyzeBatch(ctx context.Context, items []domain.AnalysisItem) []domain.Enrichment {
	if len(items) == 0 {
		return nil
	}

	text, err := g.complete(ctx, BuildBatchPrompt(items))
	if err != nil {
		g.logger.Warn("groq batch failed", "items", len(items), "error", err)
		return SentinelBatch(len(items))
	}
	return ParseResults(text, len(items))
}

func (g *Groq) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(groqRequest{
		Model:    g.model,
		Messages: []groqMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}

	var text string
	err = retry.Do(
		func() error {
			raw, callErr := postJSON(ctx, g.client, g.baseURL+"/chat/completions", headers, body)
			if callErr != nil {
				return callErr
			}

			var parsed groqResponse
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			if len(parsed.Choices) == 0 {
				return fmt.Errorf("response carries no choices")
			}

			text = parsed.Choices[0].Message.Content
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
	)
	return text, err
}
