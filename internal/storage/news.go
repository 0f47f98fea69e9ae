package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// NewsRepository persists collected records in the news table.
type NewsRepository struct {
	db *sql.DB
}

var _ ports.NewsRepository = (*NewsRepository)(nil)

// NewNewsRepository wires a sql.DB implementation.
func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// ExistsByLink reports whether a record with this link is already stored.
func (r *NewsRepository) ExistsByLink(ctx context.Context, link string) (bool, error) {
	query, args, err := psql.Select("1").From("news").Where(sq.Eq{"link": link}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query link: %w", err)
	}
	return true, nil
}

// Insert stores a new record and fills in its generated ID. The unique link
// constraint surfaces as an error for the caller to classify.
func (r *NewsRepository) Insert(ctx context.Context, rec *domain.Record) error {
	query, args, err := psql.Insert("news").
		Columns("title", "link", "description", "source", "category", "keyword", "published_at").
		Values(rec.Title, rec.Link, rec.Description, string(rec.Category), rec.Keyword, rec.PublishedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&rec.ID); err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	return nil
}

// SelectUnenriched returns up to limit records that were never analyzed,
// oldest first.
func (r *NewsRepository) SelectUnenriched(ctx context.Context, limit int) ([]domain.Record, error) {
	query, args, err := selectRecords().
		Where("enrichment IS NULL").
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryRecords(ctx, query, args)
}

// SelectFailedEnrichment returns up to limit records whose last analysis
// ended in the retry sentinel, oldest first.
func (r *NewsRepository) SelectFailedEnrichment(ctx context.Context, limit int) ([]domain.Record, error) {
	query, args, err := selectRecords().
		Where("enrichment->>'summary' = ?", domain.FailedSummary).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryRecords(ctx, query, args)
}

// Update rewrites the mutable columns of one record, enrichment included.
func (r *NewsRepository) Update(ctx context.Context, rec domain.Record) error {
	var enrichment any
	if rec.Enrichment != nil {
		raw, err := json.Marshal(rec.Enrichment)
		if err != nil {
			return fmt.Errorf("marshal enrichment: %w", err)
		}
		enrichment = raw
	}

	query, args, err := psql.Update("news").
		Set("title", rec.Title).
		Set("description", rec.Description).
		Set("enrichment", enrichment).
		Where(sq.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

// DeleteOlderThan removes records published before the cutoff and returns
// how many went away.
func (r *NewsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("news").Where(sq.Lt{"published_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete news: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

func selectRecords() sq.SelectBuilder {
	return psql.Select("id", "title", "link", "description", "source", "category", "keyword", "published_at", "enrichment").
		From("news")
}

func (r *NewsRepository) queryRecords(ctx context.Context, query string, args []any) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rec      domain.Record
			category string
			raw      []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Link, &rec.Description, &rec.Source, &category, &rec.Keyword, &rec.PublishedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		rec.Category = domain.Category(category)

		if len(raw) > 0 {
			var e domain.Enrichment
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("decode enrichment for %d: %w", rec.ID, err)
			}
			rec.Enrichment = &e
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
