// Package catalog holds the curated titles compiled into the binary.
// A Static catalog is built once at startup and never mutated afterwards,
// so it is safe to share between goroutines without locking.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"trailerhub/pkg/models"
)

//go:embed catalog.yaml
var bundled []byte

// Repository is the read-only view of the curated catalog.
type Repository interface {
	FindByID(id string) (models.Movie, bool)
	// FindByTitle matches case-insensitively after trimming whitespace.
	FindByTitle(title string) (models.Movie, bool)
	ListByCategory(id string) ([]models.Movie, bool)
	// Categories returns every movie category in declaration order.
	Categories() []models.Category
	TVSeries() models.Category
}

type file struct {
	Categories []models.Category `yaml:"categories"`
	TVSeries   models.Category   `yaml:"tv_series"`
}

type Static struct {
	categories []models.Category
	tv         models.Category

	byID       map[string]models.Movie
	byTitle    map[string]models.Movie
	byCategory map[string]int
}

var _ Repository = (*Static)(nil)

// New builds a catalog from already-parsed categories. Empty posters are
// replaced with a placeholder and nil genres with an empty slice. When two
// entries share an id or a title the first one declared wins.
func New(categories []models.Category, tv models.Category) *Static {
	s := &Static{
		byID:       make(map[string]models.Movie),
		byTitle:    make(map[string]models.Movie),
		byCategory: make(map[string]int, len(categories)),
	}

	for _, c := range categories {
		c = normalizeCategory(c)
		s.byCategory[c.ID] = len(s.categories)
		s.categories = append(s.categories, c)
		s.index(c.Movies)
	}
	s.tv = normalizeCategory(tv)
	s.index(s.tv.Movies)

	return s
}

// Load parses a catalog document.
func Load(data []byte) (*Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, c := range f.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("parse catalog: category %q has no id", c.Name)
		}
	}
	return New(f.Categories, f.TVSeries), nil
}

// Default returns the catalog bundled into the binary.
func Default() (*Static, error) {
	return Load(bundled)
}

func MustDefault() *Static {
	s, err := Default()
	if err != nil {
		panic(err)
	}
	return s
}

func normalizeCategory(c models.Category) models.Category {
	movies := make([]models.Movie, 0, len(c.Movies))
	for _, m := range c.Movies {
		if strings.TrimSpace(m.Poster) == "" {
			m.Poster = Placeholder(m.Title)
		}
		if m.Genres == nil {
			m.Genres = []string{}
		}
		movies = append(movies, m)
	}
	c.Movies = movies
	return c
}

func (s *Static) index(movies []models.Movie) {
	for _, m := range movies {
		if _, ok := s.byID[m.ID]; !ok {
			s.byID[m.ID] = m
		}
		key := titleKey(m.Title)
		if _, ok := s.byTitle[key]; !ok && key != "" {
			s.byTitle[key] = m
		}
	}
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s *Static) FindByID(id string) (models.Movie, bool) {
	m, ok := s.byID[id]
	if !ok {
		return models.Movie{}, false
	}
	return cloneMovie(m), true
}

func (s *Static) FindByTitle(title string) (models.Movie, bool) {
	key := titleKey(title)
	if key == "" {
		return models.Movie{}, false
	}
	m, ok := s.byTitle[key]
	if !ok {
		return models.Movie{}, false
	}
	return cloneMovie(m), true
}

func (s *Static) ListByCategory(id string) ([]models.Movie, bool) {
	if id == s.tv.ID && id != "" {
		return cloneMovies(s.tv.Movies), true
	}
	i, ok := s.byCategory[id]
	if !ok {
		return nil, false
	}
	return cloneMovies(s.categories[i].Movies), true
}

func (s *Static) Categories() []models.Category {
	out := make([]models.Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = cloneCategory(c)
	}
	return out
}

func (s *Static) TVSeries() models.Category {
	return cloneCategory(s.tv)
}

// Callers get copies so nothing they do can reach the shared catalog.
func cloneMovie(m models.Movie) models.Movie {
	m.Genres = slices.Clone(m.Genres)
	return m
}

func cloneMovies(in []models.Movie) []models.Movie {
	out := make([]models.Movie, len(in))
	for i, m := range in {
		out[i] = cloneMovie(m)
	}
	return out
}

func cloneCategory(c models.Category) models.Category {
	c.Movies = cloneMovies(c.Movies)
	return c
}
