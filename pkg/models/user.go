package models

import "time"

const (
	ListWatchlist = "watchlist"
	ListFavorite  = "favorite"
)

type WatchlistItem struct {
	UserID  string    `json:"user_id"`
	MovieID string    `json:"movie_id"`
	List    string    `json:"list"`
	AddedAt time.Time `json:"added_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	MovieID   string    `json:"movie_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RatingSummary struct {
	MovieID string  `json:"movie_id"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Comment is a node of a movie's comment thread. Replies is only populated
// when a thread is assembled.
type Comment struct {
	ID        int64     `json:"id"`
	MovieID   string    `json:"movie_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Comment `json:"replies"`
}

type Subscriber struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Source         string     `json:"source,omitempty"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}
