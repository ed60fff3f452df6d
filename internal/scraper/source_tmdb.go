package scraper

import (
	"context"
	"fmt"
	"strconv"

	"trailerhub/internal/logging"
	"trailerhub/internal/tmdb"
	"trailerhub/pkg/models"
)

// TMDBSource reads the popular movies list.
type TMDBSource struct {
	Client *tmdb.Client
	Pages  int
	// Category is assigned to every entry, TMDB has no notion of one.
	Category string
	// Trailers costs one extra request per movie.
	Trailers bool
}

func NewTMDBSource(c *tmdb.Client, pages int, category string) *TMDBSource {
	if pages <= 0 {
		pages = 1
	}
	return &TMDBSource{Client: c, Pages: pages, Category: category, Trailers: true}
}

func (s *TMDBSource) Name() string { return "tmdb" }

func (s *TMDBSource) FetchAll(ctx context.Context) ([]models.CanonicalMovie, error) {
	genres, err := s.Client.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("tmdb: genres: %w", err)
	}

	var out []models.CanonicalMovie
	for p := 1; p <= s.Pages; p++ {
		movies, err := s.Client.Popular(ctx, p)
		if err != nil {
			if len(out) > 0 {
				logging.Warn().Err(err).Str("component", "scraper").Int("page", p).Msg("tmdb page failed, keeping earlier pages")
				break
			}
			return nil, fmt.Errorf("tmdb: popular page %d: %w", p, err)
		}
		if len(movies) == 0 {
			break
		}

		for _, m := range movies {
			if m.Title == "" {
				continue
			}
			cm := models.CanonicalMovie{
				Title:       m.Title,
				Year:        m.Year(),
				PosterURL:   s.Client.PosterURL(m.PosterPath),
				Category:    s.Category,
				Description: m.Overview,
				SourceIDs:   map[string]string{"tmdb": strconv.FormatInt(m.ID, 10)},
			}
			for _, id := range m.GenreIDs {
				if name, ok := genres[id]; ok {
					cm.Genres = append(cm.Genres, name)
				}
			}
			if s.Trailers {
				videos, err := s.Client.Videos(ctx, m.ID)
				if err == nil {
					cm.TrailerURL = tmdb.TrailerURL(videos)
				}
			}
			out = append(out, cm)
		}
	}
	return out, nil
}
