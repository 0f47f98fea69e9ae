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

// Ollama calls a locally hosted model over the Ollama generate API. Local
// models are slower, so the timeout is wider than for the cloud providers.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Analyzer = (*Ollama)(nil)

// NewOllama builds the provider from config.
func NewOllama(cfg config.OllamaConfig, logger *slog.Logger) *Ollama {
	return &Ollama{
		baseURL: cfg.URL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 3 * time.Minute},
		logger:  logger,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// AnalyzeBatch sends one prompt for the whole batch. Any failure yields a
// sentinel batch of the same length.
func (o *Ollama) AnalyzeBatch(ctx context.Context, items []domain.AnalysisItem) []domain.Enrichment {
	if len(items) == 0 {
		return nil
	}

	text, err := o.generate(ctx, BuildBatchPrompt(items))
	if err != nil {
		o.logger.Warn("ollama batch failed", "items", len(items), "error", err)
		return SentinelBatch(len(items))
	}
	return ParseResults(text, len(items))
}

func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{Model: o.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	err = retry.Do(
		func() error {
			raw, callErr := postJSON(ctx, o.client, o.baseURL+"/api/generate", nil, body)
			if callErr != nil {
				return callErr
			}

			var parsed ollamaResponse
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}

			text = parsed.Response
			return nil
		},
		retry.Attempts(2),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
	)
	return text, err
}
