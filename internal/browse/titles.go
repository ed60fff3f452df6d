package browse

import (
	"context"
	"fmt"
	"strings"

	"trailerhub/internal/reconcile"
	"trailerhub/pkg/models"
)

type MovieGetter interface {
	GetByID(ctx context.Context, id string) (*models.MovieRecord, error)
}

type TrailerGetter interface {
	GetByID(ctx context.Context, id string) (*models.UpcomingTrailer, error)
}

// Titles resolves a route parameter to a display movie. It is the single
// place that decides which id user data (watchlist, reviews, comments) is
// stored under.
type Titles struct {
	Resolver *reconcile.Resolver
	Movies   MovieGetter
	// Trailers is optional.
	Trailers TrailerGetter
}

func NewTitles(r *reconcile.Resolver, movies MovieGetter, trailers TrailerGetter) *Titles {
	return &Titles{Resolver: r, Movies: movies, Trailers: trailers}
}

// Title looks id up as a catalog entry, then as an upcoming trailer, then as
// a backend record. A nil movie with a nil error means unknown.
func (t *Titles) Title(ctx context.Context, id string) (*models.Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	if m, ok := t.Resolver.Resolve(id, ""); ok {
		return &m, nil
	}

	if rest, ok := strings.CutPrefix(id, reconcile.UpcomingIDPrefix); ok && t.Trailers != nil {
		tr, err := t.Trailers.GetByID(ctx, rest)
		if err != nil {
			return nil, fmt.Errorf("get trailer: %w", err)
		}
		if tr == nil {
			return nil, nil
		}
		m := reconcile.ProjectUpcoming(*tr)
		return &m, nil
	}

	rec, err := t.Movies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	m := t.Resolver.Project(*rec)
	return &m, nil
}
