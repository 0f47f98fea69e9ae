package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trendstream/internal/ports"
)

// StatsRepository maintains the per-source hourly counters.
type StatsRepository struct {
	db *sql.DB
}

var _ ports.StatsRepository = (*StatsRepository)(nil)

// NewStatsRepository wires a sql.DB implementation.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Increment bumps one (source, date, hour) bucket. The upsert makes the
// read-modify-write atomic, so concurrent consumers never lose counts.
func (r *StatsRepository) Increment(ctx context.Context, source string, day time.Time, hour int) error {
	query := `INSERT INTO news_stats (source, stat_date, stat_hour, count)
	          VALUES ($1, $2, $3, 1)
	          ON CONFLICT (source, stat_date, stat_hour)
	          DO UPDATE SET count = news_stats.count + 1`

	if _, err := r.db.ExecContext(ctx, query, source, day, hour); err != nil {
		return fmt.Errorf("increment stats: %w", err)
	}
	return nil
}
