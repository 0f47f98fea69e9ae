package domain

import (
	"strings"
	"time"
)

// Category classifies where a message came from.
type Category string

const (
	CategoryNews      Category = "NEWS"
	CategoryBlog      Category = "BLOG"
	CategoryCommunity Category = "COMMUNITY"
)

// WireDateFormat is the publication-date layout collectors put on the bus.
// Downstream consumers parse it and fall back to the current time on failure.
const WireDateFormat = "Mon, 2 Jan 2006 15:04:05 -0700"

// Message is the bus wire contract shared by all collectors and consumers.
// Immutable once published.
type Message struct {
	Title             string   `json:"title"`
	Link              string   `json:"link"`
	Description       string   `json:"description"`
	Source            string   `json:"source"`
	Category          Category `json:"category"`
	PublishDateRaw    string   `json:"publishDateRaw"`
	CollectionKeyword string   `json:"collectionKeyword,omitempty"`
}

// Sentiment is the allowed enrichment sentiment set.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// FailedSummary marks an enrichment that must be retried on a later run.
const FailedSummary = "analysis failed"

// Enrichment is the AI-derived summary attached to a record.
type Enrichment struct {
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords"`
	Score     int       `json:"score"`
}

// Failed reports whether this enrichment carries the retry sentinel.
func (e Enrichment) Failed() bool {
	return e.Summary == FailedSummary
}

// FailedEnrichment returns the uniform sentinel written when a provider
// call fails for a whole batch.
func FailedEnrichment() Enrichment {
	return Enrichment{
		Summary:   FailedSummary,
		Sentiment: SentimentNeutral,
		Keywords:  nil,
		Score:     0,
	}
}

// Record is the persisted representation of one collected item. Link is the
// globally unique identity key; Enrichment is nil until the scheduler fills
// it in.
type Record struct {
	ID          int64
	Title       string
	Link        string
	Description string
	Source      string
	Category    Category
	Keyword     string
	PublishedAt time.Time
	Enrichment  *Enrichment
}

// AnalysisItem is one entry in a batch sent to an AI provider.
type AnalysisItem struct {
	Title       string
	Description string
}

// Tag is a normalized keyword extracted from enrichment results.
type Tag struct {
	ID   int64
	Name string
}

// NormalizeTag trims and lower-cases a keyword so tags never differ only
// by case or surrounding whitespace.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StatsBucket counts messages per source, calendar date, and hour of day.
type StatsBucket struct {
	Source string
	Date   time.Time
	Hour   int
	Count  int64
}

// Subscriber is a user who receives keyword notifications.
type Subscriber struct {
	ID    int64
	Email string
	Name  string
}

// RelatedRecord is a trimmed record reference returned by trend queries.
type RelatedRecord struct {
	ID    int64
	Title string
	Link  string
}

// TrendKeyword pairs a tag with its occurrence count in a window plus the
// most recent related records.
type TrendKeyword struct {
	Keyword string
	Count   int64
	Related []RelatedRecord
}
