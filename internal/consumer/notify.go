package consumer

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"trendstream/internal/domain"
	"trendstream/internal/metric"
	"trendstream/internal/ports"
)

// NotifyGroup is the durable group name of the notification consumer.
const NotifyGroup = "notification-group"

// Notify matches every bus message against the active subscription keywords
// and delivers at most one notification per subscriber and link within the
// dedupe TTL. The keyword set is cached and refreshed lazily so the hot path
// stays off the database.
type Notify struct {
	subs     ports.SubscriptionRepository
	dedupe   ports.DedupeStore
	notifier ports.Notifier
	logger   *slog.Logger
	metrics  *metric.Metrics

	refreshEvery time.Duration
	dedupeTTL    time.Duration
	now          func() time.Time

	mu          sync.Mutex
	keywords    []string
	refreshedAt time.Time
}

// NewNotify builds the notification consumer.
func NewNotify(
	subs ports.SubscriptionRepository,
	dedupe ports.DedupeStore,
	notifier ports.Notifier,
	refreshEvery, dedupeTTL time.Duration,
	logger *slog.Logger,
	metrics *metric.Metrics,
) *Notify {
	return &Notify{
		subs:         subs,
		dedupe:       dedupe,
		notifier:     notifier,
		logger:       logger,
		metrics:      metrics,
		refreshEvery: refreshEvery,
		dedupeTTL:    dedupeTTL,
		now:          time.Now,
	}
}

// Handle matches the message against the cached keyword set and notifies the
// subscribers of every hit. Delivery failures for one subscriber do not block
// the rest and do not fail the message; the dedupe key is written only after
// a successful send so the next matching message retries the subscriber.
func (n *Notify) Handle(ctx context.Context, msg domain.Message) error {
	keywords, err := n.activeKeywords(ctx)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}

	haystack := strings.ToLower(msg.Title + " " + msg.Description)
	for _, kw := range keywords {
		if !strings.Contains(haystack, strings.ToLower(kw)) {
			continue
		}
		n.notifyKeyword(ctx, kw, msg)
	}

	if n.metrics != nil {
		n.metrics.Consumed.WithLabelValues(NotifyGroup).Inc()
	}
	return nil
}

func (n *Notify) notifyKeyword(ctx context.Context, keyword string, msg domain.Message) {
	subs, err := n.subs.ListSubscribersForKeyword(ctx, keyword)
	if err != nil {
		n.logger.Warn("list subscribers failed", "keyword", keyword, "error", err)
		return
	}

	for _, sub := range subs {
		key := dedupeKey(sub.ID, msg.Link)

		sent, err := n.dedupe.Exists(ctx, key)
		if err != nil {
			n.logger.Warn("dedupe lookup failed", "key", key, "error", err)
			continue
		}
		if sent {
			continue
		}

		if err := n.notifier.Send(ctx, sub, keyword, msg); err != nil {
			n.logger.Warn("notification failed",
				"subscriber", sub.ID, "keyword", keyword, "error", err)
			continue
		}

		if err := n.dedupe.SetWithTTL(ctx, key, n.dedupeTTL); err != nil {
			n.logger.Warn("dedupe write failed", "key", key, "error", err)
		}
		if err := n.subs.MarkNotified(ctx, sub.ID, keyword); err != nil {
			n.logger.Warn("mark notified failed", "subscriber", sub.ID, "error", err)
		}

		if n.metrics != nil {
			n.metrics.Notifications.Inc()
		}
		n.logger.Info("notification sent",
			"subscriber", sub.ID, "keyword", keyword, "link", msg.Link)
	}
}

// activeKeywords serves the cached set, refreshing it from the repository
// when it is older than refreshEvery. A refresh failure surfaces only when
// there is no previous set to fall back on.
func (n *Notify) activeKeywords(ctx context.Context) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.refreshedAt.IsZero() && n.now().Sub(n.refreshedAt) < n.refreshEvery {
		return n.keywords, nil
	}

	fresh, err := n.subs.ListActiveKeywords(ctx)
	if err != nil {
		if !n.refreshedAt.IsZero() {
			n.logger.Warn("keyword refresh failed, serving stale set", "error", err)
			return n.keywords, nil
		}
		return nil, err
	}

	n.keywords = fresh
	n.refreshedAt = n.now()
	return n.keywords, nil
}

// dedupeKey identifies one (subscriber, link) pair. The link is hashed so
// arbitrary URLs stay within the key charset of the backing store.
func dedupeKey(subscriberID int64, link string) string {
	h := fnv.New32a()
	h.Write([]byte(link))
	return fmt.Sprintf("notify.%d.%d", subscriberID, h.Sum32())
}
