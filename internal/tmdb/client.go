// Package tmdb is a small client for The Movie Database v3 API, used to fill
// in posters and trailers and as an ingest source.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"trailerhub/internal/remote"
	"trailerhub/internal/retry"
)

type StatusError = remote.StatusError

// ErrDisabled is returned by every call when no API key is configured.
var ErrDisabled = errors.New("tmdb: no api key configured")

type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	Policy       retry.Policy
}

type Client struct {
	cfg  Config
	doer *remote.Doer
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = retry.DefaultPolicy
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	return &Client{cfg: cfg, doer: remote.NewDoer("tmdb", cfg.Timeout, cfg.Policy)}
}

func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
}

// Year is 0 when the release date is missing.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(m.ReleaseDate[:4])
	return y
}

type Video struct {
	Key      string `json:"key"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type page[T any] struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []T `json:"results"`
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + path + "?" + params.Encode()

	raw, err := c.doer.Do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", op, err)
	}
	return nil
}

// SearchMovie returns the first page of matches. A zero year searches all years.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]Movie, error) {
	params := url.Values{"query": {title}, "include_adult": {"false"}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var p page[Movie]
	if err := c.get(ctx, "search", "/search/movie", params, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Popular returns one page (1-based) of the popular movies list.
func (c *Client) Popular(ctx context.Context, pageNum int) ([]Movie, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	var p page[Movie]
	if err := c.get(ctx, "popular", "/movie/popular", url.Values{"page": {strconv.Itoa(pageNum)}}, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

func (c *Client) Videos(ctx context.Context, movieID int64) ([]Video, error) {
	var resp struct {
		Results []Video `json:"results"`
	}
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/videos"
	if err := c.get(ctx, "videos", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Genres maps TMDB genre ids to names.
func (c *Client) Genres(ctx context.Context) (map[int]string, error) {
	var resp struct {
		Genres []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[int]string, len(resp.Genres))
	for _, g := range resp.Genres {
		out[g.ID] = g.Name
	}
	return out, nil
}

func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return c.cfg.ImageBaseURL + "/" + strings.TrimLeft(path, "/")
}

// TrailerURL picks the best YouTube trailer: official trailers first, then
// any trailer, then any teaser.
func TrailerURL(videos []Video) string {
	best, bestRank := "", 0
	for _, v := range videos {
		if !strings.EqualFold(v.Site, "YouTube") || v.Key == "" {
			continue
		}
		rank := 0
		switch {
		case v.Type == "Trailer" && v.Official:
			rank = 3
		case v.Type == "Trailer":
			rank = 2
		case v.Type == "Teaser":
			rank = 1
		}
		if rank > bestRank {
			best, bestRank = v.Key, rank
		}
	}
	if best == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + best
}

// Lookup finds a poster and trailer for a title. Either may be empty when
// TMDB has nothing; no match at all is not an error.
func (c *Client) Lookup(ctx context.Context, title string, year int) (string, string, error) {
	results, err := c.SearchMovie(ctx, title, year)
	if err != nil {
		return "", "", err
	}
	if len(results) == 0 {
		return "", "", nil
	}
	m := pick(results, title)

	videos, err := c.Videos(ctx, m.ID)
	if err != nil {
		return c.PosterURL(m.PosterPath), "", err
	}
	return c.PosterURL(m.PosterPath), TrailerURL(videos), nil
}

// pick prefers an exact case-insensitive title match over TMDB's ranking.
func pick(results []Movie, title string) Movie {
	want := strings.ToLower(strings.TrimSpace(title))
	for _, m := range results {
		if strings.ToLower(strings.TrimSpace(m.Title)) == want {
			return m
		}
	}
	return results[0]
}
