package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trailerhub/internal/retry"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:       "k",
		BaseURL:      srv.URL,
		ImageBaseURL: "https://img.test/w500/",
		Timeout:      time.Second,
		Policy:       retry.Policy{MaxAttempts: 2, Initial: time.Millisecond, Max: time.Millisecond},
	})
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "k" || r.URL.Query().Get("year") != "2022" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		reply(w, map[string]any{"results": []Movie{
			{ID: 1, Title: "The Batman Returns", PosterPath: "/wrong.jpg"},
			{ID: 2, Title: "The Batman", PosterPath: "/batman.jpg", ReleaseDate: "2022-03-01"},
		}})
	})
	mux.HandleFunc("/movie/2/videos", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"results": []Video{
			{Key: "teaser", Site: "YouTube", Type: "Teaser"},
			{Key: "vimeo", Site: "Vimeo", Type: "Trailer", Official: true},
			{Key: "fan", Site: "YouTube", Type: "Trailer"},
			{Key: "official", Site: "YouTube", Type: "Trailer", Official: true},
		}})
	})
	c := newTestClient(t, mux)

	poster, trailer, err := c.Lookup(context.Background(), "the batman", 2022)
	if err != nil {
		t.Fatal(err)
	}
	if poster != "https://img.test/w500/batman.jpg" {
		t.Fatalf("poster = %q", poster)
	}
	if trailer != "https://www.youtube.com/watch?v=official" {
		t.Fatalf("trailer = %q", trailer)
	}
}

func TestLookup_NoMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"results": []Movie{}})
	})
	c := newTestClient(t, mux)

	poster, trailer, err := c.Lookup(context.Background(), "Nothing", 0)
	if err != nil || poster != "" || trailer != "" {
		t.Fatalf("Lookup = %q %q %v", poster, trailer, err)
	}
}

func TestDisabledWithoutKey(t *testing.T) {
	c := New(Config{})
	if c.Enabled() {
		t.Fatal("client without key reports enabled")
	}
	if _, err := c.Popular(context.Background(), 1); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	})
	c := newTestClient(t, mux)

	_, err := c.Popular(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}

func TestMovieYear(t *testing.T) {
	for in, want := range map[string]int{"2022-03-01": 2022, "": 0, "20": 0} {
		if got := (Movie{ReleaseDate: in}).Year(); got != want {
			t.Errorf("Year(%q) = %d, want %d", in, got, want)
		}
	}
}
