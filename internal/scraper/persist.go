package scraper

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gosimple/slug"

	"trailerhub/internal/metrics"
	"trailerhub/internal/movies"
	"trailerhub/pkg/models"
)

type SaveStats struct {
	Created   int
	Updated   int
	Unchanged int
}

// SaveToDatabase writes merged entries to the movies table. An entry whose
// title and year already exist only fills that row's empty columns; curated
// values are never overwritten. New rows get a fresh backend id and
// fallbackCategory when the entry has none.
func SaveToDatabase(ctx context.Context, repo *movies.Repo, entries []models.CanonicalMovie, fallbackCategory string) (SaveStats, error) {
	var stats SaveStats
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		source := primarySource(e)

		existing, err := repo.FindByTitleYear(ctx, e.Title, e.Year)
		if err != nil {
			return stats, err
		}

		if existing == nil {
			rec := toRecord(e, fallbackCategory)
			if err := repo.Create(ctx, rec); err != nil {
				return stats, fmt.Errorf("save %q: %w", e.Title, err)
			}
			stats.Created++
			metrics.IngestedMovies.WithLabelValues(source).Inc()
			continue
		}

		if !fillGaps(existing, e) {
			stats.Unchanged++
			continue
		}
		if _, err := repo.Update(ctx, *existing); err != nil {
			return stats, fmt.Errorf("save %q: %w", e.Title, err)
		}
		stats.Updated++
		metrics.IngestedMovies.WithLabelValues(source).Inc()
	}
	return stats, nil
}

func toRecord(e models.CanonicalMovie, fallbackCategory string) models.MovieRecord {
	category := e.Category
	if category == "" {
		category = fallbackCategory
	}
	return models.MovieRecord{
		ID:          movies.BackendID(""),
		Title:       strings.TrimSpace(e.Title),
		Year:        e.Year,
		PosterURL:   e.PosterURL,
		TrailerURL:  e.TrailerURL,
		Category:    slug.Make(category),
		Genres:      e.Genres,
		Description: e.Description,
	}
}

func fillGaps(rec *models.MovieRecord, e models.CanonicalMovie) bool {
	changed := false
	if strings.TrimSpace(rec.PosterURL) == "" && e.PosterURL != "" {
		rec.PosterURL, changed = e.PosterURL, true
	}
	if strings.TrimSpace(rec.TrailerURL) == "" && e.TrailerURL != "" {
		rec.TrailerURL, changed = e.TrailerURL, true
	}
	if len(rec.Genres) == 0 && len(e.Genres) > 0 {
		rec.Genres, changed = e.Genres, true
	}
	if rec.Description == "" && e.Description != "" {
		rec.Description, changed = e.Description, true
	}
	return changed
}

// primarySource labels the ingest metric; with several sources the
// alphabetically first wins so the label is stable.
func primarySource(e models.CanonicalMovie) string {
	if len(e.SourceIDs) == 0 {
		return "unknown"
	}
	keys := make([]string, 0, len(e.SourceIDs))
	for k := range e.SourceIDs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys[0]
}
