package movies

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"trailerhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const movieColumns = `id, title, year, poster_url, trailer_url, category,
	is_featured, is_trending, is_latest, genres, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (models.MovieRecord, error) {
	var (
		m           models.MovieRecord
		poster      sql.NullString
		trailer     sql.NullString
		genresJSON  string
		description sql.NullString
	)
	err := s.Scan(
		&m.ID, &m.Title, &m.Year, &poster, &trailer, &m.Category,
		&m.IsFeatured, &m.IsTrending, &m.IsLatest, &genresJSON, &description, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return m, err
	}
	m.PosterURL = poster.String
	m.TrailerURL = trailer.String
	m.Description = description.String
	if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil || m.Genres == nil {
		m.Genres = []string{}
	}
	return m, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.MovieRecord, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &m, nil
}

// ListMovies applies every filter in q. A non-positive limit returns all rows.
func (r *Repo) ListMovies(ctx context.Context, q models.MovieQuery) ([]models.MovieRecord, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.MovieRecord, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, q models.MovieQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func buildListSQL(q models.MovieQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT ` + movieColumns + ` FROM movies`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM movies`
	}

	var where []string
	var args []any

	if c := strings.TrimSpace(q.Category); c != "" {
		where = append(where, "category = ?")
		args = append(args, c)
	}
	if kw := strings.TrimSpace(q.Q); kw != "" {
		// instr matches literally, so % and _ in kw are plain characters
		where = append(where, "instr(unicode_lower(title), ?) > 0")
		args = append(args, strings.ToLower(kw))
	}
	for col, flag := range map[string]*bool{
		"is_featured": q.Featured,
		"is_trending": q.Trending,
		"is_latest":   q.Latest,
	} {
		if flag != nil {
			where = append(where, col+" = ?")
			args = append(args, *flag)
		}
	}

	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	if countOnly {
		return sqlStr, args
	}

	sqlStr += " ORDER BY created_at DESC, title ASC"
	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		sqlStr += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, offset)
	}
	return sqlStr, args
}

func (r *Repo) Create(ctx context.Context, m models.MovieRecord) error {
	genres, err := json.Marshal(nonNil(m.Genres))
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO movies (id, title, year, poster_url, trailer_url, category,
			is_featured, is_trending, is_latest, genres, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, m.Year, nullIfEmpty(m.PosterURL), strings.TrimSpace(m.TrailerURL), m.Category,
		m.IsFeatured, m.IsTrending, m.IsLatest, string(genres), nullIfEmpty(m.Description))
	if err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// Update replaces every editable column. It reports false when id is unknown.
func (r *Repo) Update(ctx context.Context, m models.MovieRecord) (bool, error) {
	genres, err := json.Marshal(nonNil(m.Genres))
	if err != nil {
		return false, fmt.Errorf("encode genres: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE movies
		SET title = ?, year = ?, poster_url = ?, trailer_url = ?, category = ?,
			is_featured = ?, is_trending = ?, is_latest = ?, genres = ?, description = ?,
			updated_at = ?
		WHERE id = ?
	`, m.Title, m.Year, nullIfEmpty(m.PosterURL), strings.TrimSpace(m.TrailerURL), m.Category,
		m.IsFeatured, m.IsTrending, m.IsLatest, string(genres), nullIfEmpty(m.Description),
		time.Now().UTC(), m.ID)
	if err != nil {
		return false, fmt.Errorf("update movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update movie rows: %w", err)
	}
	return n > 0, nil
}

// Upsert inserts or replaces by id; used by bulk import and ingest.
func (r *Repo) Upsert(ctx context.Context, m models.MovieRecord) error {
	ok, err := r.Update(ctx, m)
	if err != nil || ok {
		return err
	}
	return r.Create(ctx, m)
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete movie rows: %w", err)
	}
	return n > 0, nil
}

// FindByTitleYear matches case-insensitively; ingest uses it to avoid duplicates.
func (r *Repo) FindByTitleYear(ctx context.Context, title string, year int) (*models.MovieRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+movieColumns+` FROM movies
		WHERE LOWER(TRIM(title)) = ? AND year = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(title)), year)
	m, err := scanMovie(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find by title: %w", err)
	}
	return &m, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
