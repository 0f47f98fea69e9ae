package ai

import (
	"strings"
	"testing"

	"trendstream/internal/domain"
)

func TestBuildBatchPromptNumbersItems(t *testing.T) {
	t.Parallel()

	prompt := BuildBatchPrompt([]domain.AnalysisItem{
		{Title: "Go 1.25 released", Description: "Release notes"},
		{Title: "PostgreSQL 18 beta"},
	})

	for _, want := range []string{"1. Title: Go 1.25 released", "Description: Release notes", "2. Title: PostgreSQL 18 beta"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseResultsHappyPath(t *testing.T) {
	t.Parallel()

	text := `[
		{"summary": "Go 1.25 ships.", "sentiment": "POSITIVE", "keywords": ["Go", " Release "], "score": 85},
		{"summary": "PG 18 beta.", "sentiment": "neutral", "keywords": [], "score": 40}
	]`

	got := ParseResults(text, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Summary != "Go 1.25 ships." || got[0].Sentiment != domain.SentimentPositive || got[0].Score != 85 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[0].Keywords[0] != "go" || got[0].Keywords[1] != "release" {
		t.Fatalf("keywords not normalized: %v", got[0].Keywords)
	}
	if got[1].Sentiment != domain.SentimentNeutral {
		t.Fatalf("lowercase sentiment should normalize, got %s", got[1].Sentiment)
	}
}

func TestParseResultsStripsCodeFence(t *testing.T) {
	t.Parallel()

	text := "```json\n[{\"summary\": \"ok\", \"sentiment\": \"NEUTRAL\", \"keywords\": [], \"score\": 1}]\n```"
	got := ParseResults(text, 1)
	if got[0].Failed() {
		t.Fatalf("fenced JSON should parse, got %+v", got[0])
	}
}

func TestParseResultsGarbageYieldsSentinels(t *testing.T) {
	t.Parallel()

	got := ParseResults("I'm sorry, I can't do that.", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, e := range got {
		if !e.Failed() {
			t.Fatalf("item %d should carry the retry sentinel, got %+v", i, e)
		}
	}
}

func TestParseResultsPadsAndTruncates(t *testing.T) {
	t.Parallel()

	short := `[{"summary": "only one", "sentiment": "NEUTRAL", "keywords": [], "score": 5}]`
	got := ParseResults(short, 3)
	if got[0].Failed() || !got[1].Failed() || !got[2].Failed() {
		t.Fatalf("short response must pad with sentinels: %+v", got)
	}

	long := `[
		{"summary": "a", "sentiment": "NEUTRAL", "keywords": [], "score": 1},
		{"summary": "b", "sentiment": "NEUTRAL", "keywords": [], "score": 2}
	]`
	got = ParseResults(long, 1)
	if len(got) != 1 || got[0].Summary != "a" {
		t.Fatalf("long response must truncate positionally: %+v", got)
	}
}

func TestParseResultsClampsScoreAndSentiment(t *testing.T) {
	t.Parallel()

	text := `[
		{"summary": "hot", "sentiment": "AMAZING", "keywords": [], "score": 900},
		{"summary": "cold", "sentiment": "NEGATIVE", "keywords": [], "score": -5}
	]`
	got := ParseResults(text, 2)
	if got[0].Score != 100 || got[0].Sentiment != domain.SentimentNeutral {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Score != 0 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestParseResultsEmptySummaryIsSentinel(t *testing.T) {
	t.Parallel()

	text := `[{"summary": "  ", "sentiment": "POSITIVE", "keywords": ["x"], "score": 50}]`
	got := ParseResults(text, 1)
	if !got[0].Failed() {
		t.Fatalf("blank summary must degrade to sentinel, got %+v", got[0])
	}
}
