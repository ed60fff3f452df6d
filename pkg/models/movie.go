package models

import "time"

// Movie is the unified display form shared by every view. Poster is never
// empty once a movie has been projected.
type Movie struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Year       int      `json:"year" yaml:"year"`
	Poster     string   `json:"poster" yaml:"poster"`
	TrailerURL string   `json:"trailerUrl" yaml:"trailer_url"`
	Genres     []string `json:"genres" yaml:"genres"`
}

type Category struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Movies []Movie `json:"movies" yaml:"movies"`
}

// MovieRecord is a row of the movies table as served by the content API.
// An empty PosterURL stands for a missing poster.
type MovieRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	PosterURL   string    `json:"poster_url"`
	TrailerURL  string    `json:"trailer_url"`
	Category    string    `json:"category"`
	IsFeatured  bool      `json:"is_featured"`
	IsTrending  bool      `json:"is_trending"`
	IsLatest    bool      `json:"is_latest"`
	Genres      []string  `json:"genres"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// MovieQuery filters the movies table. Nil flag pointers mean "don't care".
type MovieQuery struct {
	Category string
	Q        string
	Featured *bool
	Trending *bool
	Latest   *bool
	Limit    int
	Offset   int
}
