package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// TagRepository manages normalized tags, their record links, and the trend
// read path over them.
type TagRepository struct {
	db *sql.DB
}

var (
	_ ports.TagRepository   = (*TagRepository)(nil)
	_ ports.TrendRepository = (*TagRepository)(nil)
)

// NewTagRepository wires a sql.DB implementation.
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// FindOrCreate returns the tag's ID, inserting it on first sight. The no-op
// update in the conflict arm lets RETURNING yield the existing row's ID.
func (r *TagRepository) FindOrCreate(ctx context.Context, name string) (int64, error) {
	query := `INSERT INTO tags (name) VALUES ($1)
	          ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	          RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert tag: %w", err)
	}
	return id, nil
}

// LinkRecord attaches a tag to a record; repeat links are ignored.
func (r *TagRepository) LinkRecord(ctx context.Context, recordID, tagID int64) error {
	query, args, err := psql.Insert("record_tags").
		Columns("news_id", "tag_id").
		Values(recordID, tagID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link tag: %w", err)
	}
	return nil
}

// TopSince returns the most frequent tags among records published after
// since, each with its recent related records attached.
func (r *TagRepository) TopSince(ctx context.Context, since time.Time, limit int) ([]domain.TrendKeyword, error) {
	query, args, err := psql.Select("t.name", "COUNT(*) AS cnt").
		From("record_tags rt").
		Join("tags t ON t.id = rt.tag_id").
		Join("news n ON n.id = rt.news_id").
		Where(sq.GtOrEq{"n.published_at": since}).
		GroupBy("t.name").
		OrderBy("cnt DESC", "t.name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top tags: %w", err)
	}
	defer rows.Close()

	var out []domain.TrendKeyword
	for rows.Next() {
		var kw domain.TrendKeyword
		if err := rows.Scan(&kw.Keyword, &kw.Count); err != nil {
			return nil, fmt.Errorf("scan top tag: %w", err)
		}
		out = append(out, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// RecentRecordsByTag returns the newest records in the window carrying the
// given tag.
func (r *TagRepository) RecentRecordsByTag(ctx context.Context, tag string, since time.Time, limit int) ([]domain.RelatedRecord, error) {
	query, args, err := psql.Select("n.id", "n.title", "n.link").
		From("news n").
		Join("record_tags rt ON rt.news_id = n.id").
		Join("tags t ON t.id = rt.tag_id").
		Where(sq.Eq{"t.name": tag}).
		Where(sq.GtOrEq{"n.published_at": since}).
		OrderBy("n.published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query related records: %w", err)
	}
	defer rows.Close()

	var out []domain.RelatedRecord
	for rows.Next() {
		var rec domain.RelatedRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Link); err != nil {
			return nil, fmt.Errorf("scan related record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
