package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trailerhub/pkg/models"
)

// ErrBadParent is returned when a reply names a parent that does not exist
// or belongs to another movie.
var ErrBadParent = errors.New("parent comment not found for this movie")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const commentSelect = `
	SELECT c.id, c.movie_id, c.user_id, u.username, c.parent_id, c.body, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

func (r *Repo) Create(ctx context.Context, movieID, userID string, parentID *int64, body string) (*models.Comment, error) {
	if parentID != nil {
		parent, err := r.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.MovieID != movieID {
			return nil, ErrBadParent
		}
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO comments (movie_id, user_id, parent_id, body)
		VALUES (?, ?, ?, ?)
	`, movieID, userID, parentID, body)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	row := r.DB.QueryRowContext(ctx, commentSelect+`WHERE c.id = ?`, id)
	cm, err := scanComment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return cm, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*models.Comment, error) {
	var cm models.Comment
	var parent sql.NullInt64
	var created time.Time
	if err := s.Scan(&cm.ID, &cm.MovieID, &cm.UserID, &cm.Username, &parent, &cm.Body, &created); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.Int64
		cm.ParentID = &p
	}
	cm.CreatedAt = created
	cm.Replies = []models.Comment{}
	return &cm, nil
}

// ListByMovie returns the flat thread oldest first; see BuildTree.
func (r *Repo) ListByMovie(ctx context.Context, movieID string) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, commentSelect+`
		WHERE c.movie_id = ?
		ORDER BY c.created_at ASC, c.id ASC
	`, movieID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		cm, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		out = append(out, *cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Delete removes a comment and, through the foreign key, its replies.
// Only the author may delete unless asAdmin is set.
func (r *Repo) Delete(ctx context.Context, id int64, userID string, asAdmin bool) (bool, error) {
	query := `DELETE FROM comments WHERE id = ? AND user_id = ?`
	args := []any{id, userID}
	if asAdmin {
		query = `DELETE FROM comments WHERE id = ?`
		args = args[:1]
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
