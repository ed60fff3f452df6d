package watchlist

import (
	"context"
	"database/sql"
	"fmt"

	"trailerhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add is idempotent; it reports whether a new row was written.
func (r *Repo) Add(ctx context.Context, item models.WatchlistItem) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, movie_id, list)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, movie_id, list) DO NOTHING
	`, item.UserID, item.MovieID, item.List)
	if err != nil {
		return false, fmt.Errorf("add watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Remove(ctx context.Context, userID, movieID, list string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM watchlist
		WHERE user_id = ? AND movie_id = ? AND list = ?
	`, userID, movieID, list)
	if err != nil {
		return false, fmt.Errorf("remove watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns a page of one list, newest first, plus the list's total size.
func (r *Repo) List(ctx context.Context, userID, list string, limit, offset int) ([]models.WatchlistItem, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM watchlist WHERE user_id = ? AND list = ?
	`, userID, list).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, movie_id, list, added_at
		FROM watchlist
		WHERE user_id = ? AND list = ?
		ORDER BY added_at DESC, movie_id ASC
		LIMIT ? OFFSET ?
	`, userID, list, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	out := make([]models.WatchlistItem, 0, limit)
	for rows.Next() {
		var it models.WatchlistItem
		if err := rows.Scan(&it.UserID, &it.MovieID, &it.List, &it.AddedAt); err != nil {
			return nil, 0, fmt.Errorf("scan watchlist: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// Lists returns the names of the lists movieID is on for userID.
func (r *Repo) Lists(ctx context.Context, userID, movieID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT list FROM watchlist WHERE user_id = ? AND movie_id = ? ORDER BY list
	`, userID, movieID)
	if err != nil {
		return nil, fmt.Errorf("watchlist lists: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 2)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
