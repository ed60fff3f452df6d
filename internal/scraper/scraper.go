// Package scraper pulls movie metadata from external sources, merges what
// they say about the same title, and writes the result to the movies table.
package scraper

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"trailerhub/internal/logging"
	"trailerhub/pkg/models"
)

// Source is implemented by each external data source (API, HTML listing,
// JSON mirror). Each one maps its own format into CanonicalMovie.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.CanonicalMovie, error)
}

type Aggregator struct {
	Sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources}
}

// FetchAndMerge queries every source in order and merges entries that
// describe the same movie. A failing source is logged and skipped. Output
// order is the order in which each movie was first seen.
func (a *Aggregator) FetchAndMerge(ctx context.Context) ([]models.CanonicalMovie, error) {
	var out []models.CanonicalMovie
	byKey := make(map[string]int)
	byTitle := make(map[string]int)

	for _, src := range a.Sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		log := logging.With("scraper").With().Str("source", src.Name()).Logger()
		log.Info().Msg("fetching")

		movies, err := src.FetchAll(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("source failed, skipping")
			continue
		}
		log.Info().Int("count", len(movies)).Msg("fetched")

		for _, m := range movies {
			if strings.TrimSpace(m.Title) == "" {
				continue
			}
			title := normalizeKey(m.Title)
			key := canonicalKey(m)

			idx, ok := byKey[key]
			if !ok && m.Year == 0 {
				idx, ok = byTitle[title]
			}
			if ok {
				out[idx] = mergeMovie(out[idx], m)
				if out[idx].Year != 0 {
					byKey[canonicalKey(out[idx])] = idx
				}
				continue
			}

			byKey[key] = len(out)
			if _, seen := byTitle[title]; !seen {
				byTitle[title] = len(out)
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// canonicalKey groups entries by normalized title and year, the same pair the
// display layer dedupes on.
func canonicalKey(m models.CanonicalMovie) string {
	return normalizeKey(m.Title) + "|" + strconv.Itoa(m.Year)
}

// normalizeKey lowercases s, keeps letters and digits and collapses
// everything else into single spaces.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// mergeMovie fills gaps in base from incoming. Base keeps its title, poster,
// trailer and category; genres are unioned and the longer description wins.
func mergeMovie(base, incoming models.CanonicalMovie) models.CanonicalMovie {
	if incoming.Title != "" && incoming.Title != base.Title {
		base.AltTitles = appendIfMissing(base.AltTitles, incoming.Title)
	}
	for _, t := range incoming.AltTitles {
		if t != base.Title {
			base.AltTitles = appendIfMissing(base.AltTitles, t)
		}
	}

	if base.Year == 0 {
		base.Year = incoming.Year
	}
	if base.PosterURL == "" {
		base.PosterURL = incoming.PosterURL
	}
	if base.TrailerURL == "" {
		base.TrailerURL = incoming.TrailerURL
	}
	if base.Category == "" {
		base.Category = incoming.Category
	}

	base.Genres = mergeStringSlices(base.Genres, incoming.Genres)

	if len(incoming.Description) > len(base.Description) {
		base.Description = incoming.Description
	}

	if base.SourceIDs == nil {
		base.SourceIDs = make(map[string]string)
	}
	for k, v := range incoming.SourceIDs {
		base.SourceIDs[k] = v
	}
	return base
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if strings.EqualFold(x, v) {
			return slice
		}
	}
	return append(slice, v)
}

func mergeStringSlices(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		out = appendIfMissing(out, v)
	}
	for _, v := range b {
		out = appendIfMissing(out, v)
	}
	return out
}

func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
