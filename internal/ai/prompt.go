// Package ai implements the batch analysis providers. All providers share
// one contract: a batch of items goes in, a result slice of exactly the same
// length and order comes out, and provider failures surface as sentinel
// results rather than errors so the scheduler can mark the batch for retry.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"trendstream/internal/domain"
)

// maxScore caps the relevance score a provider may assign.
const maxScore = 100

// BuildBatchPrompt renders one prompt asking the model to analyze every item
// and answer with a JSON array in the same order.
func BuildBatchPrompt(items []domain.AnalysisItem) string {
	var b strings.Builder
	b.WriteString("You are a tech news analyst. Analyze each numbered item below.\n")
	b.WriteString("Respond with ONLY a JSON array, one object per item in the same order, ")
	b.WriteString(`each shaped as {"summary": string, "sentiment": "POSITIVE"|"NEGATIVE"|"NEUTRAL", "keywords": [string], "score": 0-100}. `)
	b.WriteString("Summaries are at most three sentences. Keywords are up to three short technology terms.\n\n")

	for i, item := range items {
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, item.Title)
		if item.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", item.Description)
		}
	}
	return b.String()
}

type promptResult struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Keywords  []string `json:"keywords"`
	Score     int      `json:"score"`
}

// ParseResults decodes a model answer into exactly n enrichments. Fenced
// code blocks around the JSON are tolerated. A response that cannot be
// decoded yields a full sentinel batch; too-short responses are padded with
// sentinels and too-long ones truncated, so positions always line up.
func ParseResults(text string, n int) []domain.Enrichment {
	var raw []promptResult
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return SentinelBatch(n)
	}

	out := make([]domain.Enrichment, n)
	for i := range out {
		if i >= len(raw) {
			out[i] = domain.FailedEnrichment()
			continue
		}
		out[i] = sanitize(raw[i])
	}
	return out
}

// SentinelBatch returns n failed-enrichment sentinels.
func SentinelBatch(n int) []domain.Enrichment {
	out := make([]domain.Enrichment, n)
	for i := range out {
		out[i] = domain.FailedEnrichment()
	}
	return out
}

func sanitize(r promptResult) domain.Enrichment {
	if strings.TrimSpace(r.Summary) == "" {
		return domain.FailedEnrichment()
	}

	sentiment := domain.Sentiment(strings.ToUpper(strings.TrimSpace(r.Sentiment)))
	switch sentiment {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral:
	default:
		sentiment = domain.SentimentNeutral
	}

	score := r.Score
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	keywords := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		if norm := domain.NormalizeTag(kw); norm != "" {
			keywords = append(keywords, norm)
		}
	}

	return domain.Enrichment{
		Summary:   strings.TrimSpace(r.Summary),
		Sentiment: sentiment,
		Keywords:  keywords,
		Score:     score,
	}
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, that chat models often wrap JSON answers in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
