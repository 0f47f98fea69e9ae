package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// Gemini calls the Google Generative Language API.
type Gemini struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Analyzer = (*Gemini)(nil)

// NewGemini builds the provider from config.
func NewGemini(cfg config.GeminiConfig, logger *slog.Logger) *Gemini {
	return &Gemini{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// AnalyzeBatch sends one prompt for the whole batch. Any failure yields a
// sentinel batch of the same length.
func (g *Gemini) AnalyzeBatch(ctx context.Context, items []domain.AnalysisItem) []domain.Enrichment {
	if len(items) == 0 {
		return nil
	}

	text, err := g.generate(ctx, BuildBatchPrompt(items))
	if err != nil {
		g.logger.Warn("gemini batch failed", "items", len(items), "error", err)
		return SentinelBatch(len(items))
	}
	return ParseResults(text, len(items))
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	var text string
	err = retry.Do(
		func() error {
			raw, callErr := postJSON(ctx, g.client, url, nil, body)
			if callErr != nil {
				return callErr
			}

			var parsed geminiResponse
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
				return fmt.Errorf("response carries no candidates")
			}

			text = parsed.Candidates[0].Content.Parts[0].Text
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
	)
	return text, err
}

// postJSON posts a JSON body and returns the raw response. 4xx statuses
// other than 429 are unrecoverable.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("provider returned %s: %s", resp.Status, truncateErrBody(raw))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	return raw, nil
}

func truncateErrBody(raw []byte) string {
	const max = 256
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
