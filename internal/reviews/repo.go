package reviews

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

// Upsert keeps one review per user and movie; a second call replaces the
// rating and text and refreshes the timestamp.
func (r *Repo) Upsert(ctx context.Context, userID, movieID string, rating int, text string) (*models.Review, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (user_id, movie_id, rating, text)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			rating = excluded.rating,
			text = excluded.text,
			timestamp = CURRENT_TIMESTAMP
	`, userID, movieID, rating, text)
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}
	return r.getOne(ctx, `user_id = ? AND movie_id = ?`, userID, movieID)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *Repo) getOne(ctx context.Context, where string, args ...any) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, rating, text, timestamp
		FROM reviews
		WHERE `+where, args...)

	review, err := scanReview(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return review, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (*models.Review, error) {
	var review models.Review
	var text sql.NullString
	var ts time.Time
	if err := s.Scan(&review.ID, &review.UserID, &review.MovieID, &review.Rating, &text, &ts); err != nil {
		return nil, err
	}
	review.Text = text.String
	review.Timestamp = ts
	return &review, nil
}

func (r *Repo) ListByMovie(ctx context.Context, movieID string, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, movie_id, rating, text, timestamp
		FROM reviews
		WHERE movie_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`, movieID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, limit)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Summary is zero-valued (count 0, average 0) for a movie without reviews.
func (r *Repo) Summary(ctx context.Context, movieID string) (models.RatingSummary, error) {
	sum := models.RatingSummary{MovieID: movieID}
	var avg sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(rating)
		FROM reviews
		WHERE movie_id = ?
	`, movieID).Scan(&sum.Count, &avg)
	if err != nil {
		return sum, fmt.Errorf("summarize reviews: %w", err)
	}
	sum.Average = avg.Float64
	return sum, nil
}

func (r *Repo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
