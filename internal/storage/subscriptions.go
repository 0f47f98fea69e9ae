package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// SubscriptionRepository reads keyword subscriptions and their owners.
type SubscriptionRepository struct {
	db *sql.DB
}

var _ ports.SubscriptionRepository = (*SubscriptionRepository)(nil)

// NewSubscriptionRepository wires a sql.DB implementation.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ListActiveKeywords returns the distinct keywords of all active
// subscriptions.
func (r *SubscriptionRepository) ListActiveKeywords(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("DISTINCT keyword").
		From("subscriptions").
		Where(sq.Eq{"active": true}).
		OrderBy("keyword ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ListSubscribersForKeyword returns the users with an active subscription
// on the keyword.
func (r *SubscriptionRepository) ListSubscribersForKeyword(ctx context.Context, keyword string) ([]domain.Subscriber, error) {
	query, args, err := psql.Select("u.id", "u.email", "u.name").
		From("subscriptions s").
		Join("users u ON u.id = s.user_id").
		Where(sq.Eq{"s.keyword": keyword, "s.active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Name); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// MarkNotified stamps the subscription with the delivery time.
func (r *SubscriptionRepository) MarkNotified(ctx context.Context, subscriberID int64, keyword string) error {
	query, args, err := psql.Update("subscriptions").
		Set("last_notified_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": subscriberID, "keyword": keyword}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}
