// Package apiclient talks to the trailerhub content API over HTTP. It is the
// backend source for the CLI, which composes views locally.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"trailerhub/internal/compose"
	"trailerhub/internal/remote"
	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

type StatusError = remote.StatusError

// RemoteError is an {"error": "..."} body from the API. Status is 0 when
// the body came with a 2xx response.
type RemoteError struct {
	Message string
	Status  int
	cause   error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return "api: " + e.Message
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

func (e *RemoteError) Unwrap() error { return e.cause }

type Client struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	doer  *remote.Doer
}

var (
	_ compose.MovieSource    = (*Client)(nil)
	_ compose.UpcomingSource = (*Client)(nil)
)

type Options struct {
	Timeout time.Duration
	Policy  retry.Policy
}

func New(baseURL string, opts Options) *Client {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.DefaultPolicy
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		doer:    remote.NewDoer("api", opts.Timeout, opts.Policy),
	}
}

// call sends a JSON request and decodes the response into out. A 2xx body
// carrying an "error" field is reported as *RemoteError.
func (c *Client) call(ctx context.Context, op, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = b
	}

	raw, err := c.doer.Do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		return req, nil
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			if msg := errorField([]byte(se.Body)); msg != "" {
				return &RemoteError{Message: msg, Status: se.Code, cause: err}
			}
		}
		return err
	}

	if msg := errorField(raw); msg != "" {
		return &RemoteError{Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

func errorField(b []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if len(b) == 0 || json.Unmarshal(b, &e) != nil {
		return ""
	}
	return e.Error
}

func movieQuery(q models.MovieQuery) string {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	for name, flag := range map[string]*bool{"featured": q.Featured, "trending": q.Trending, "latest": q.Latest} {
		if flag != nil {
			v.Set(name, strconv.FormatBool(*flag))
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListMovies(ctx context.Context, q models.MovieQuery) ([]models.MovieRecord, error) {
	var resp struct {
		Movies []models.MovieRecord `json:"movies"`
	}
	if err := c.call(ctx, "list_movies", http.MethodGet, "/api/movies"+movieQuery(q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Movies, nil
}

// GetByID returns nil, nil when the API answers 404.
func (c *Client) GetByID(ctx context.Context, id string) (*models.MovieRecord, error) {
	var resp struct {
		Movie *models.MovieRecord `json:"movie"`
	}
	err := c.call(ctx, "get_movie", http.MethodGet, "/api/movies/"+url.PathEscape(id), nil, &resp)
	if remote.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Movie, nil
}

func (c *Client) ListUpcoming(ctx context.Context) ([]models.UpcomingTrailer, error) {
	var resp struct {
		Trailers []models.UpcomingTrailer `json:"trailers"`
	}
	if err := c.call(ctx, "list_upcoming", http.MethodGet, "/api/upcoming-trailers?released=false", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Trailers, nil
}

func (c *Client) ListComments(ctx context.Context, movieID string) ([]models.Comment, error) {
	var resp struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := c.call(ctx, "list_comments", http.MethodGet, "/api/movies/"+url.PathEscape(movieID)+"/comments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

func (c *Client) PostComment(ctx context.Context, movieID, body string, parentID *int64) (*models.Comment, error) {
	payload := map[string]any{"body": body}
	if parentID != nil {
		payload["parent_id"] = *parentID
	}
	var resp struct {
		Comment models.Comment `json:"comment"`
	}
	if err := c.call(ctx, "post_comment", http.MethodPost, "/users/movies/"+url.PathEscape(movieID)+"/comments", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Comment, nil
}

// Title resolves a display id server-side. Nil means unknown.
func (c *Client) Title(ctx context.Context, id string) (*models.Movie, error) {
	var resp struct {
		Movie *models.Movie `json:"movie"`
	}
	err := c.call(ctx, "title", http.MethodGet, "/api/titles/"+url.PathEscape(id), nil, &resp)
	if remote.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Movie, nil
}

type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, "login", http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	payload := map[string]string{"username": username, "email": email, "password": password}
	if err := c.call(ctx, "register", http.MethodPost, "/auth/register", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

type WatchlistPage struct {
	List   string                 `json:"list"`
	Total  int                    `json:"total"`
	Items  []models.WatchlistItem `json:"items"`
	Movies []models.Movie         `json:"movies"`
}

func (c *Client) Watchlist(ctx context.Context, list string) (*WatchlistPage, error) {
	path := "/users/watchlist"
	if list != "" {
		path += "?list=" + url.QueryEscape(list)
	}
	var resp WatchlistPage
	if err := c.call(ctx, "watchlist", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddToWatchlist(ctx context.Context, movieID, list string) error {
	payload := map[string]string{"movie_id": movieID, "list": list}
	return c.call(ctx, "watchlist_add", http.MethodPost, "/users/watchlist", payload, nil)
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, movieID, list string) error {
	path := "/users/watchlist/" + url.PathEscape(movieID)
	if list != "" {
		path += "?list=" + url.QueryEscape(list)
	}
	return c.call(ctx, "watchlist_remove", http.MethodDelete, path, nil, nil)
}
