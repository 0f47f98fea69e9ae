package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/logging"
)

const answerJSON = `[
	{"summary": "First item.", "sentiment": "POSITIVE", "keywords": ["go"], "score": 70},
	{"summary": "Second item.", "sentiment": "NEGATIVE", "keywords": ["db"], "score": 30}
]`

var batchItems = []domain.AnalysisItem{
	{Title: "First"},
	{Title: "Second"},
}

func TestGroqAnalyzeBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req groqRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama-3.1-8b-instant" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(groqResponse{
			Choices: []struct {
				Message groqMessage `json:"message"`
			}{{Message: groqMessage{Role: "assistant", Content: answerJSON}}},
		})
	}))
	defer srv.Close()

	g := NewGroq(config.GroqConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "llama-3.1-8b-instant"}, logging.Discard())
	got := g.AnalyzeBatch(context.Background(), batchItems)

	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Summary != "First item." || got[1].Summary != "Second item." {
		t.Fatalf("order broken: %+v", got)
	}
}

func TestGroqFailureYieldsSentinelBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGroq(config.GroqConfig{BaseURL: srv.URL, APIKey: "bad", Model: "m"}, logging.Discard())
	got := g.AnalyzeBatch(context.Background(), batchItems)

	if len(got) != 2 {
		t.Fatalf("failure must preserve batch length, len = %d", len(got))
	}
	for i, e := range got {
		if !e.Failed() {
			t.Fatalf("item %d should be sentinel, got %+v", i, e)
		}
	}
}

func TestGeminiAnalyzeBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "```json\n" + answerJSON + "\n```"}}}}},
		})
	}))
	defer srv.Close()

	g := NewGemini(config.GeminiConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "gemini-2.5-flash"}, logging.Discard())
	got := g.AnalyzeBatch(context.Background(), batchItems)

	if len(got) != 2 || got[0].Failed() {
		t.Fatalf("fenced answer should parse: %+v", got)
	}
	if got[0].Sentiment != domain.SentimentPositive {
		t.Fatalf("first = %+v", got[0])
	}
}

func TestOllamaAnalyzeBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}

		json.NewEncoder(w).Encode(ollamaResponse{Response: answerJSON})
	}))
	defer srv.Close()

	o := NewOllama(config.OllamaConfig{URL: srv.URL, Model: "gemma3:4b"}, logging.Discard())
	got := o.AnalyzeBatch(context.Background(), batchItems)

	if len(got) != 2 || got[0].Failed() || got[1].Failed() {
		t.Fatalf("got %+v", got)
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	t.Parallel()

	g := NewGroq(config.GroqConfig{BaseURL: "http://unused", Model: "m"}, logging.Discard())
	if got := g.AnalyzeBatch(context.Background(), nil); got != nil {
		t.Fatalf("empty batch must not call the provider, got %v", got)
	}
}
