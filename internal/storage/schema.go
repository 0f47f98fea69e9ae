// Package storage implements the Postgres repositories behind the ports.
// All statements go through squirrel with $n placeholders; enrichment is
// stored as a JSONB column next to the record row.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// psql builds statements with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS news (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'NEWS',
		keyword TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		enrichment JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_enrichment_missing
		ON news (id) WHERE enrichment IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_news_published_at ON news (published_at)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS record_tags (
		news_id BIGINT NOT NULL REFERENCES news(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (news_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS news_stats (
		source TEXT NOT NULL,
		stat_date DATE NOT NULL,
		stat_hour SMALLINT NOT NULL,
		count BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (source, stat_date, stat_hour)
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		keyword TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_notified_at TIMESTAMPTZ,
		UNIQUE (user_id, keyword)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_keyword
		ON subscriptions (keyword) WHERE active`,
}

// EnsureSchema creates all tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
