package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trendstream/internal/domain"
	"trendstream/internal/logging"
	"trendstream/internal/ports"
)

type fakeStatsRepo struct {
	buckets map[string]int64
	err     error
}

var _ ports.StatsRepository = (*fakeStatsRepo)(nil)

func (f *fakeStatsRepo) Increment(_ context.Context, source string, day time.Time, hour int) error {
	if f.err != nil {
		return f.err
	}
	if f.buckets == nil {
		f.buckets = map[string]int64{}
	}
	f.buckets[fmt.Sprintf("%s|%s|%d", source, day.Format("2006-01-02"), hour)]++
	return nil
}

func TestStatsBucketsBySourceDateHour(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{}
	s := NewStats(repo, logging.Discard(), nil)
	s.now = func() time.Time {
		return time.Date(2025, 8, 4, 14, 45, 0, 0, time.UTC)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Handle(ctx, domain.Message{Source: "Hacker News"}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if err := s.Handle(ctx, domain.Message{Source: "Dev.to"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := repo.buckets["Hacker News|2025-08-04|14"]; got != 3 {
		t.Fatalf("hacker news bucket = %d, want 3", got)
	}
	if got := repo.buckets["Dev.to|2025-08-04|14"]; got != 1 {
		t.Fatalf("dev.to bucket = %d, want 1", got)
	}
}

func TestStatsPropagatesRepoError(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{err: errors.New("db down")}
	s := NewStats(repo, logging.Discard(), nil)

	if err := s.Handle(context.Background(), domain.Message{Source: "x"}); err == nil {
		t.Fatal("expected error so the bus redelivers")
	}
}
