package models

import "time"

type UpcomingTrailer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	ReleaseDate string    `json:"release_date"` // YYYY-MM-DD
	TrailerURL  string    `json:"trailer_url,omitempty"`
	IsReleased  bool      `json:"is_released"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
