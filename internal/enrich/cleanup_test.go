package enrich

import (
	"context"
	"testing"
	"time"

	"trendstream/internal/logging"
)

type sweepNewsRepo struct {
	fakeNewsRepo
	cutoff time.Time
}

func (s *sweepNewsRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 7, nil
}

func TestCleanupUsesRetentionWindow(t *testing.T) {
	t.Parallel()

	repo := &sweepNewsRepo{}
	c := NewCleanup(repo, 60, logging.Discard())

	before := time.Now().UTC().Add(-60 * 24 * time.Hour)
	c.RunOnce(context.Background())
	after := time.Now().UTC().Add(-60 * 24 * time.Hour)

	if repo.cutoff.Before(before) || repo.cutoff.After(after.Add(time.Second)) {
		t.Fatalf("cutoff = %v, expected about 60 days back", repo.cutoff)
	}
}
