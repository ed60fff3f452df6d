package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trailerhub/internal/retry"
	"trailerhub/pkg/models"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Timeout: time.Second, Policy: fastPolicy})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListMovies_QueryAndDecode(t *testing.T) {
	var gotQuery string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/movies" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"movies": []models.MovieRecord{{ID: "db-1", Title: "Heat", Year: 1995, Category: "hollywood"}},
		})
	})

	yes := true
	recs, err := c.ListMovies(context.Background(), models.MovieQuery{Category: "hollywood", Featured: &yes, Limit: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "db-1" {
		t.Fatalf("recs = %+v", recs)
	}
	if gotQuery != "category=hollywood&featured=true&limit=100" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestCall_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trailers": []models.UpcomingTrailer{{ID: "t1"}}})
	})

	trailers, err := c.ListUpcoming(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(trailers) != 1 || calls.Load() != 3 {
		t.Fatalf("trailers = %v, calls = %d", trailers, calls.Load())
	}
}

func TestCall_GivesUpAfterPolicy(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
	})

	_, err := c.ListComments(context.Background(), "h-4")
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestCall_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
	})

	_, err := c.PostComment(context.Background(), "h-4", "", nil)
	var re *RemoteError
	if !errors.As(err, &re) || re.Message != "body is required" || re.Status != http.StatusBadRequest {
		t.Fatalf("err = %#v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("status error not reachable: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestCall_ErrorFieldOnSuccess(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "comments disabled"})
	})

	_, err := c.ListComments(context.Background(), "h-4")
	var re *RemoteError
	if !errors.As(err, &re) || re.Status != 0 {
		t.Fatalf("err = %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	m, err := c.GetByID(context.Background(), "db-x")
	if err != nil || m != nil {
		t.Fatalf("GetByID = %v, %v", m, err)
	}
	title, err := c.Title(context.Background(), "nope")
	if err != nil || title != nil {
		t.Fatalf("Title = %v, %v", title, err)
	}
}

func TestBearerToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"list": "watchlist", "total": 1, "items": []models.WatchlistItem{{MovieID: "h-4"}}})
	})

	if _, err := c.Watchlist(context.Background(), ""); err == nil {
		t.Fatal("expected error without token")
	}
	c.Token = "tok"
	page, err := c.Watchlist(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].MovieID != "h-4" {
		t.Fatalf("page = %+v", page)
	}
}
