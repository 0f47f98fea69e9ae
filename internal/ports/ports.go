package ports

import (
	"context"
	"time"

	"trendstream/internal/domain"
)

// MessageHandler processes one bus message. Returning an error asks the bus
// to redeliver the message to the same group later.
type MessageHandler func(ctx context.Context, msg domain.Message) error

// Bus is the durable publish channel all collectors write to. Each named
// group attached via Subscribe receives every message at least once with
// its own read position.
type Bus interface {
	Publish(ctx context.Context, msg domain.Message) error
	Subscribe(ctx context.Context, group string, handler MessageHandler) error
}

// NewsRepository persists collected records and serves enrichment batches.
type NewsRepository interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
	Insert(ctx context.Context, rec *domain.Record) error
	SelectUnenriched(ctx context.Context, limit int) ([]domain.Record, error)
	SelectFailedEnrichment(ctx context.Context, limit int) ([]domain.Record, error)
	Update(ctx context.Context, rec domain.Record) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsRepository maintains per-source time-bucketed counters.
type StatsRepository interface {
	Increment(ctx context.Context, source string, day time.Time, hour int) error
}

// TagRepository manages normalized tags and their record links.
type TagRepository interface {
	FindOrCreate(ctx context.Context, name string) (int64, error)
	LinkRecord(ctx context.Context, recordID, tagID int64) error
}

// TrendRepository serves the read path of the tag/trend index.
type TrendRepository interface {
	TopSince(ctx context.Context, since time.Time, limit int) ([]domain.TrendKeyword, error)
	RecentRecordsByTag(ctx context.Context, tag string, since time.Time, limit int) ([]domain.RelatedRecord, error)
}

// SubscriptionRepository exposes the subscription store to the core.
type SubscriptionRepository interface {
	ListActiveKeywords(ctx context.Context) ([]string, error)
	ListSubscribersForKeyword(ctx context.Context, keyword string) ([]domain.Subscriber, error)
	MarkNotified(ctx context.Context, subscriberID int64, keyword string) error
}

// DedupeStore is a TTL key-value store suppressing repeat notifications.
type DedupeStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	SetWithTTL(ctx context.Context, key string, ttl time.Duration) error
}

// Notifier delivers one matched-keyword notification to a subscriber.
type Notifier interface {
	Send(ctx context.Context, sub domain.Subscriber, keyword string, msg domain.Message) error
}

// Analyzer is the swappable AI-provider strategy. The returned slice always
// has the same length and order as items; implementations substitute
// sentinel results instead of returning errors.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, items []domain.AnalysisItem) []domain.Enrichment
}
