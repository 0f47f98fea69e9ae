// Package consumer holds the three independent bus consumer groups: one
// persisting records, one maintaining collection statistics, and one matching
// subscriptions. Each runs on its own durable group so a crash in one never
// stalls the others.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"trendstream/internal/domain"
	"trendstream/internal/metric"
	"trendstream/internal/ports"
)

// StoreGroup is the durable group name of the persistence consumer.
const StoreGroup = "news-group"

// Store persists every bus message as a record, keyed by link. Duplicate
// deliveries and races with other replicas collapse on the unique link
// constraint.
type Store struct {
	repo    ports.NewsRepository
	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewStore builds the persistence consumer.
func NewStore(repo ports.NewsRepository, logger *slog.Logger, metrics *metric.Metrics) *Store {
	return &Store{repo: repo, logger: logger, metrics: metrics}
}

// Handle inserts one message. Already-stored links are acknowledged without a
// second insert so redeliveries stay idempotent.
func (s *Store) Handle(ctx context.Context, msg domain.Message) error {
	exists, err := s.repo.ExistsByLink(ctx, msg.Link)
	if err != nil {
		return fmt.Errorf("check link: %w", err)
	}
	if exists {
		s.logger.Debug("duplicate link skipped", "link", msg.Link)
		return nil
	}

	rec := domain.Record{
		Title:       msg.Title,
		Link:        msg.Link,
		Description: msg.Description,
		Source:      msg.Source,
		Category:    msg.Category,
		Keyword:     msg.CollectionKeyword,
		PublishedAt: parsePublishDate(msg.PublishDateRaw),
	}

	if err := s.repo.Insert(ctx, &rec); err != nil {
		// a concurrent insert of the same link lost the race; treat it
		// like the exists path
		if isUniqueViolation(err) {
			s.logger.Debug("concurrent duplicate skipped", "link", msg.Link)
			return nil
		}
		return fmt.Errorf("insert record: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Consumed.WithLabelValues(StoreGroup).Inc()
	}
	s.logger.Debug("record stored", "id", rec.ID, "source", rec.Source)
	return nil
}

// parsePublishDate parses the wire layout; malformed dates degrade to the
// current time rather than dropping the message.
func parsePublishDate(raw string) time.Time {
	if t, err := time.Parse(domain.WireDateFormat, raw); err == nil {
		return t
	}
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
