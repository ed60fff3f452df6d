package reconcile

import (
	"strings"
	"time"

	"trailerhub/internal/catalog"
	"trailerhub/pkg/models"
)

// UpcomingIDPrefix namespaces upcoming trailers so they never collide with
// catalog or backend ids.
const UpcomingIDPrefix = "upcoming-"

// Project converts a backend record into its display form. When the record
// resolves to a catalog entry the catalog id, trailer and genres take over;
// the record's own poster still wins when it has one.
func (r *Resolver) Project(rec models.MovieRecord) models.Movie {
	static, matched := r.Resolve(rec.ID, rec.Title)

	m := models.Movie{
		ID:         rec.ID,
		Title:      rec.Title,
		Year:       rec.Year,
		TrailerURL: rec.TrailerURL,
		Genres:     rec.Genres,
	}

	if matched {
		m.ID = static.ID
		m.TrailerURL = static.TrailerURL
		if m.Year == 0 {
			m.Year = static.Year
		}
		if len(static.Genres) > 0 {
			m.Genres = static.Genres
		}
	}

	switch {
	case strings.TrimSpace(rec.PosterURL) != "":
		m.Poster = strings.TrimSpace(rec.PosterURL)
	case matched && static.Poster != "":
		m.Poster = static.Poster
	default:
		m.Poster = catalog.Placeholder(rec.Title)
	}

	if m.Genres == nil {
		m.Genres = []string{}
	}
	return m
}

// ProjectAll projects records in order.
func (r *Resolver) ProjectAll(recs []models.MovieRecord) []models.Movie {
	out := make([]models.Movie, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.Project(rec))
	}
	return out
}

// ProjectUpcoming converts an upcoming trailer into a display movie. The year
// comes from the release date and is 0 when the date cannot be parsed.
func ProjectUpcoming(t models.UpcomingTrailer) models.Movie {
	m := models.Movie{
		ID:         UpcomingIDPrefix + t.ID,
		Title:      t.Title,
		Year:       releaseYear(t.ReleaseDate),
		TrailerURL: t.TrailerURL,
		Genres:     []string{},
	}
	if p := strings.TrimSpace(t.PosterURL); p != "" {
		m.Poster = p
	} else {
		m.Poster = catalog.Placeholder(t.Title)
	}
	return m
}

func releaseYear(date string) int {
	date = strings.TrimSpace(date)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006"} {
		if ts, err := time.Parse(layout, date); err == nil {
			return ts.Year()
		}
	}
	return 0
}
