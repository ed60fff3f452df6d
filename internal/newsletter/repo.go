package newsletter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trailerhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Subscribe is idempotent. An unsubscribed address is reactivated. It
// reports whether the address was not active before the call.
func (r *Repo) Subscribe(ctx context.Context, email, source string) (*models.Subscriber, bool, error) {
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.UnsubscribedAt == nil {
		return existing, false, nil
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (email, source)
		VALUES (?, ?)
		ON CONFLICT (email) DO UPDATE SET
			unsubscribed_at = NULL,
			subscribed_at = CURRENT_TIMESTAMP,
			source = COALESCE(excluded.source, newsletter_subscribers.source)
	`, email, nullIfEmpty(source))
	if err != nil {
		return nil, false, fmt.Errorf("subscribe: %w", err)
	}

	sub, err := r.GetByEmail(ctx, email)
	return sub, true, err
}

// Unsubscribe reports false when the address is unknown or already inactive.
func (r *Repo) Unsubscribe(ctx context.Context, email string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE newsletter_subscribers
		SET unsubscribed_at = CURRENT_TIMESTAMP
		WHERE email = ? AND unsubscribed_at IS NULL
	`, email)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const subscriberColumns = `id, email, source, subscribed_at, unsubscribed_at`

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email = ?`, email)
	s, err := scanSubscriber(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan subscriber: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(s scanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	var source sql.NullString
	var subscribed time.Time
	var unsubscribed sql.NullTime
	if err := s.Scan(&sub.ID, &sub.Email, &source, &subscribed, &unsubscribed); err != nil {
		return nil, err
	}
	sub.Source = source.String
	sub.SubscribedAt = subscribed
	if unsubscribed.Valid {
		t := unsubscribed.Time
		sub.UnsubscribedAt = &t
	}
	return &sub, nil
}

// List pages subscribers newest first. activeOnly hides unsubscribed rows.
func (r *Repo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Subscriber, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	if activeOnly {
		where = ` WHERE unsubscribed_at IS NULL`
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM newsletter_subscribers`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+subscriberColumns+` FROM newsletter_subscribers`+where+`
		ORDER BY subscribed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	out := make([]models.Subscriber, 0, limit)
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subscriber row: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
