package compose

import (
	"context"
	"strings"

	"trailerhub/internal/metrics"
	"trailerhub/internal/reconcile"
	"trailerhub/pkg/models"
)

type SearchResult struct {
	Movie models.Movie `json:"movie"`
	// Category is the display name of the section the hit came from.
	Category string `json:"category"`
}

// Search matches titles containing query, case-insensitively. Hits are in
// scan order: backend records, catalog categories, TV series, then upcoming
// trailers. An id is reported once, and of several hits for the same title
// and year only the first is kept.
func (c *Composer) Search(ctx context.Context, query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []SearchResult{}
	}

	var hits []SearchResult
	seen := make(map[string]bool)
	add := func(m models.Movie, category string) {
		if seen[m.ID] || !strings.Contains(strings.ToLower(m.Title), q) {
			return
		}
		seen[m.ID] = true
		hits = append(hits, SearchResult{Movie: m, Category: category})
	}

	// no Q: matching happens here so the backend cannot narrow it differently
	recs, err := c.Movies.ListMovies(ctx, models.MovieQuery{Limit: FetchLimit})
	if err != nil {
		c.softFail("backend", "search", err)
	}
	for _, rec := range recs {
		add(c.Resolver.Project(rec), c.categoryName(rec.Category))
	}

	for _, cat := range c.Catalog.Categories() {
		for _, m := range cat.Movies {
			add(m, cat.Name)
		}
	}
	tv := c.Catalog.TVSeries()
	for _, m := range tv.Movies {
		add(m, tv.Name)
	}

	if c.Upcoming != nil {
		trailers, err := c.Upcoming.ListUpcoming(ctx)
		if err != nil {
			c.softFail("upcoming", "search", err)
		}
		for _, t := range trailers {
			if t.IsReleased {
				continue
			}
			add(reconcile.ProjectUpcoming(t), UpcomingCategoryName)
		}
	}

	out := collapse(hits)
	metrics.RecordComposed("search", len(out))
	return out
}

// UpcomingCategoryName labels search hits that come from upcoming trailers.
const UpcomingCategoryName = "Coming Soon"

func collapse(hits []SearchResult) []SearchResult {
	out := make([]SearchResult, 0, len(hits))
	kept := make(map[reconcile.Key]bool, len(hits))
	for _, h := range hits {
		k := reconcile.KeyOf(h.Movie)
		if kept[k] {
			continue
		}
		kept[k] = true
		out = append(out, h)
	}
	return out
}
