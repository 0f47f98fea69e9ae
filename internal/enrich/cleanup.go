package enrich

import (
	"context"
	"log/slog"
	"time"

	"trendstream/internal/ports"
)

// cleanupEvery sets how often the retention sweep runs.
const cleanupEvery = 24 * time.Hour

// Cleanup deletes records older than the retention window.
type Cleanup struct {
	news      ports.NewsRepository
	retention time.Duration
	logger    *slog.Logger
}

// NewCleanup builds the retention sweeper. Days gives the retention window.
func NewCleanup(news ports.NewsRepository, days int, logger *slog.Logger) *Cleanup {
	return &Cleanup{
		news:      news,
		retention: time.Duration(days) * 24 * time.Hour,
		logger:    logger,
	}
}

// Start launches the daily sweep; the first run happens immediately so a
// long-stopped instance catches up on startup.
func (c *Cleanup) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cleanupEvery)
		defer ticker.Stop()

		c.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce deletes everything past the retention cutoff.
func (c *Cleanup) RunOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.retention)

	deleted, err := c.news.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.logger.Warn("retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		c.logger.Info("retention sweep deleted records", "count", deleted, "cutoff", cutoff)
	}
}
