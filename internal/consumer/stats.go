package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendstream/internal/domain"
	"trendstream/internal/metric"
	"trendstream/internal/ports"
)

// StatsGroup is the durable group name of the statistics consumer.
const StatsGroup = "stats-group"

// Stats counts every bus message into a (source, date, hour) bucket. Counts
// are advisory: redelivered messages may be counted twice, which the
// atomic upsert keeps consistent but not exact.
type Stats struct {
	repo    ports.StatsRepository
	logger  *slog.Logger
	metrics *metric.Metrics

	now func() time.Time
}

// NewStats builds the statistics consumer.
func NewStats(repo ports.StatsRepository, logger *slog.Logger, metrics *metric.Metrics) *Stats {
	return &Stats{repo: repo, logger: logger, metrics: metrics, now: time.Now}
}

// Handle increments the bucket for the message's source at consumption time.
func (s *Stats) Handle(ctx context.Context, msg domain.Message) error {
	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if err := s.repo.Increment(ctx, msg.Source, day, now.Hour()); err != nil {
		return fmt.Errorf("increment stats: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Consumed.WithLabelValues(StatsGroup).Inc()
	}
	return nil
}
