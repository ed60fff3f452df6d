// Package compose builds the category pages and search results shown to
// users by merging backend records with the curated catalog.
package compose

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"trailerhub/internal/catalog"
	"trailerhub/internal/logging"
	"trailerhub/internal/metrics"
	"trailerhub/internal/reconcile"
	"trailerhub/pkg/models"
)

// ErrUnknownCategory is returned when a category is neither in the catalog
// nor present in the backend.
var ErrUnknownCategory = errors.New("unknown category")

// FetchLimit caps how many backend rows a single view pulls.
const FetchLimit = 100

type MovieSource interface {
	ListMovies(ctx context.Context, q models.MovieQuery) ([]models.MovieRecord, error)
}

type UpcomingSource interface {
	ListUpcoming(ctx context.Context) ([]models.UpcomingTrailer, error)
}

type Composer struct {
	Catalog  catalog.Repository
	Resolver *reconcile.Resolver
	Movies   MovieSource
	// Upcoming is optional.
	Upcoming UpcomingSource
}

func New(c catalog.Repository, movies MovieSource, upcoming UpcomingSource) *Composer {
	return &Composer{
		Catalog:  c,
		Resolver: reconcile.NewResolver(c),
		Movies:   movies,
		Upcoming: upcoming,
	}
}

// Category returns the merged movie list for a category. Backend rows come
// first; a failing backend degrades to the catalog entries alone.
func (c *Composer) Category(ctx context.Context, id string) (models.Category, error) {
	static, known := c.Catalog.ListByCategory(id)

	recs, err := c.Movies.ListMovies(ctx, models.MovieQuery{Category: id, Limit: FetchLimit})
	if err != nil {
		c.softFail("backend", "category", err)
		recs = nil
	}

	if !known && len(recs) == 0 {
		return models.Category{}, ErrUnknownCategory
	}

	movies := reconcile.Dedupe(c.Resolver.ProjectAll(recs), static)
	metrics.RecordComposed("category", len(movies))

	return models.Category{
		ID:     id,
		Name:   c.categoryName(id),
		Movies: movies,
	}, nil
}

// Categories composes every catalog category, the TV series category, and
// any category that only exists in the backend.
func (c *Composer) Categories(ctx context.Context) []models.Category {
	recs, err := c.Movies.ListMovies(ctx, models.MovieQuery{Limit: FetchLimit})
	if err != nil {
		c.softFail("backend", "categories", err)
		recs = nil
	}

	byCategory := make(map[string][]models.MovieRecord)
	var backendOnly []string
	for _, rec := range recs {
		if _, ok := byCategory[rec.Category]; !ok {
			if _, known := c.Catalog.ListByCategory(rec.Category); !known && rec.Category != "" {
				backendOnly = append(backendOnly, rec.Category)
			}
		}
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}

	static := append(c.Catalog.Categories(), c.Catalog.TVSeries())
	out := make([]models.Category, 0, len(static)+len(backendOnly))
	for _, cat := range static {
		cat.Movies = reconcile.Dedupe(c.Resolver.ProjectAll(byCategory[cat.ID]), cat.Movies)
		out = append(out, cat)
	}
	for _, id := range backendOnly {
		out = append(out, models.Category{
			ID:     id,
			Name:   c.categoryName(id),
			Movies: reconcile.DedupeList(c.Resolver.ProjectAll(byCategory[id])),
		})
	}
	return out
}

func (c *Composer) categoryName(id string) string {
	if tv := c.Catalog.TVSeries(); tv.ID == id {
		return tv.Name
	}
	for _, cat := range c.Catalog.Categories() {
		if cat.ID == id {
			return cat.Name
		}
	}
	return DisplayName(id)
}

// DisplayName turns a category slug into a title: "sci-fi_classics" -> "Sci Fi Classics".
func DisplayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func (c *Composer) softFail(source, view string, err error) {
	metrics.RecordSourceFailure(source, view)
	logging.Warn().Err(err).
		Str("component", "compose").
		Str("source", source).
		Str("view", view).
		Msg("source unavailable, continuing without it")
}
