// Package bulk reads and writes the CSV files used by cmd/import-csv and
// cmd/export-csv. Columns are matched by header name, so files may carry
// them in any order; genres are joined with "|".
package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"trailerhub/pkg/models"
)

var MovieColumns = []string{
	"id", "title", "year", "poster_url", "trailer_url", "category",
	"is_featured", "is_trending", "is_latest", "genres", "description",
}

var TrailerColumns = []string{
	"id", "title", "category", "description", "poster_url", "release_date", "trailer_url", "is_released",
}

func WriteMovies(w io.Writer, recs []models.MovieRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MovieColumns); err != nil {
		return err
	}
	for _, m := range recs {
		year := ""
		if m.Year > 0 {
			year = strconv.Itoa(m.Year)
		}
		if err := cw.Write([]string{
			m.ID,
			m.Title,
			year,
			m.PosterURL,
			m.TrailerURL,
			m.Category,
			strconv.FormatBool(m.IsFeatured),
			strconv.FormatBool(m.IsTrending),
			strconv.FormatBool(m.IsLatest),
			strings.Join(m.Genres, "|"),
			m.Description,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMovies skips rows without a title. Ids are returned as found; callers
// decide how to fill in missing ones.
func ReadMovies(r io.Reader) ([]models.MovieRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if _, ok := header["title"]; !ok {
		return nil, errors.New("movies csv: missing title column")
	}

	var out []models.MovieRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		title := valueAt(header, row, "title")
		if title == "" {
			continue
		}
		m := models.MovieRecord{
			ID:          valueAt(header, row, "id"),
			Title:       title,
			PosterURL:   valueAt(header, row, "poster_url"),
			TrailerURL:  valueAt(header, row, "trailer_url"),
			Category:    valueAt(header, row, "category"),
			Genres:      splitGenres(valueAt(header, row, "genres")),
			Description: valueAt(header, row, "description"),
		}
		if m.Year, err = parseInt(valueAt(header, row, "year")); err != nil {
			return nil, fmt.Errorf("line %d: parse year: %w", line, err)
		}
		for col, dst := range map[string]*bool{
			"is_featured": &m.IsFeatured,
			"is_trending": &m.IsTrending,
			"is_latest":   &m.IsLatest,
		} {
			if *dst, err = parseBool(valueAt(header, row, col)); err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", line, col, err)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func WriteTrailers(w io.Writer, trailers []models.UpcomingTrailer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrailerColumns); err != nil {
		return err
	}
	for _, t := range trailers {
		if err := cw.Write([]string{
			t.ID,
			t.Title,
			t.Category,
			t.Description,
			t.PosterURL,
			t.ReleaseDate,
			t.TrailerURL,
			strconv.FormatBool(t.IsReleased),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTrailers skips rows without an id or title.
func ReadTrailers(r io.Reader) ([]models.UpcomingTrailer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	var out []models.UpcomingTrailer
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		t := models.UpcomingTrailer{
			ID:          valueAt(header, row, "id"),
			Title:       valueAt(header, row, "title"),
			Category:    valueAt(header, row, "category"),
			Description: valueAt(header, row, "description"),
			PosterURL:   valueAt(header, row, "poster_url"),
			ReleaseDate: valueAt(header, row, "release_date"),
			TrailerURL:  valueAt(header, row, "trailer_url"),
		}
		if t.ID == "" || t.Title == "" {
			continue
		}
		if t.IsReleased, err = parseBool(valueAt(header, row, "is_released")); err != nil {
			return nil, fmt.Errorf("line %d: parse is_released: %w", line, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func splitGenres(raw string) []string {
	out := []string{}
	for _, g := range strings.Split(raw, "|") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
