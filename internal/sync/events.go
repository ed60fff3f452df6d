package sync

import "time"

const (
	EventWatchlistAdd    = "watchlist.add"
	EventWatchlistRemove = "watchlist.remove"
	EventReviewUpsert    = "review.upsert"
	EventCommentCreate   = "comment.create"
)

// ActivityEvent is pushed to every connected websocket client.
type ActivityEvent struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	MovieID string    `json:"movie_id"`
	List    string    `json:"list,omitempty"`
	Rating  int       `json:"rating,omitempty"`
	At      time.Time `json:"at"`
}

func NewEvent(typ, userID, movieID string) ActivityEvent {
	return ActivityEvent{Type: typ, UserID: userID, MovieID: movieID, At: time.Now().UTC()}
}
