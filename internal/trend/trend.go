// Package trend serves the read side of the tag index: which keywords are
// hot in a window and which recent records back them.
package trend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// relatedPerKeyword caps how many recent records each trend entry carries.
const relatedPerKeyword = 3

// Service answers trend queries from the tag repository.
type Service struct {
	repo   ports.TrendRepository
	logger *slog.Logger
}

// NewService wires the trend read path.
func NewService(repo ports.TrendRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// TopTrends returns the limit most frequent tags among records published in
// the trailing window, each with its most recent related records. A failure
// fetching one keyword's records degrades that entry, not the whole answer.
func (s *Service) TopTrends(ctx context.Context, window time.Duration, limit int) ([]domain.TrendKeyword, error) {
	since := time.Now().UTC().Add(-window)

	top, err := s.repo.TopSince(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top tags: %w", err)
	}

	for i := range top {
		related, err := s.repo.RecentRecordsByTag(ctx, top[i].Keyword, since, relatedPerKeyword)
		if err != nil {
			s.logger.Warn("related records failed", "keyword", top[i].Keyword, "error", err)
			continue
		}
		top[i].Related = related
	}

	return top, nil
}
