package trailers

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

const trailerColumns = `id, title, category, description, poster_url, release_date, trailer_url, is_released, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrailer(s rowScanner) (models.UpcomingTrailer, error) {
	var (
		t           models.UpcomingTrailer
		description sql.NullString
		poster      sql.NullString
		trailer     sql.NullString
	)
	err := s.Scan(&t.ID, &t.Title, &t.Category, &description, &poster, &t.ReleaseDate, &trailer, &t.IsReleased, &t.CreatedAt)
	t.Description = description.String
	t.PosterURL = poster.String
	t.TrailerURL = trailer.String
	return t, err
}

// List returns trailers ordered by release date. A nil released matches all.
func (r *Repo) List(ctx context.Context, released *bool) ([]models.UpcomingTrailer, error) {
	query := `SELECT ` + trailerColumns + ` FROM upcoming_trailers`
	var args []any
	if released != nil {
		query += ` WHERE is_released = ?`
		args = append(args, *released)
	}
	query += ` ORDER BY release_date ASC, title ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trailers: %w", err)
	}
	defer rows.Close()

	out := make([]models.UpcomingTrailer, 0)
	for rows.Next() {
		t, err := scanTrailer(rows)
		if err != nil {
			return nil, fmt.Errorf("list trailers scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ListUpcoming returns trailers that have not been released yet.
func (r *Repo) ListUpcoming(ctx context.Context) ([]models.UpcomingTrailer, error) {
	no := false
	return r.List(ctx, &no)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.UpcomingTrailer, error) {
	t, err := scanTrailer(r.DB.QueryRowContext(ctx, `SELECT `+trailerColumns+` FROM upcoming_trailers WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get trailer: %w", err)
	}
	return &t, nil
}

func (r *Repo) Create(ctx context.Context, t models.UpcomingTrailer) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO upcoming_trailers (id, title, category, description, poster_url, release_date, trailer_url, is_released)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Category, nullIfEmpty(t.Description), nullIfEmpty(t.PosterURL), t.ReleaseDate, nullIfEmpty(t.TrailerURL), t.IsReleased)
	if err != nil {
		return fmt.Errorf("create trailer: %w", err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, t models.UpcomingTrailer) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE upcoming_trailers
		SET title = ?, category = ?, description = ?, poster_url = ?, release_date = ?, trailer_url = ?, is_released = ?
		WHERE id = ?
	`, t.Title, t.Category, nullIfEmpty(t.Description), nullIfEmpty(t.PosterURL), t.ReleaseDate, nullIfEmpty(t.TrailerURL), t.IsReleased, t.ID)
	if err != nil {
		return false, fmt.Errorf("update trailer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update trailer rows: %w", err)
	}
	return n > 0, nil
}

// Upsert inserts or replaces by id; used by bulk import.
func (r *Repo) Upsert(ctx context.Context, t models.UpcomingTrailer) error {
	ok, err := r.Update(ctx, t)
	if err != nil || ok {
		return err
	}
	return r.Create(ctx, t)
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM upcoming_trailers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete trailer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete trailer rows: %w", err)
	}
	return n > 0, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
