package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
	"trailerhub/pkg/database"
	"trailerhub/pkg/models"
)

type fakeTitles map[string]string

func (f fakeTitles) Title(_ context.Context, id string) (*models.Movie, error) {
	canon, ok := f[id]
	if !ok {
		return nil, nil
	}
	return &models.Movie{ID: canon}, nil
}

type fixture struct {
	router *gin.Engine
	repo   *Repo
	tokens map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "reviews.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := auth.NewRepo(db)
	ts := auth.TokenService{Secret: []byte("k"), Issuer: "test", Duration: time.Hour}
	f := &fixture{repo: NewRepo(db), tokens: map[string]string{}}
	for _, name := range []string{"alice", "bob"} {
		u := auth.User{ID: name, Username: name, Email: name + "@example.com", PasswordHash: "x", Role: auth.RoleUser}
		if err := users.CreateUser(context.Background(), u); err != nil {
			t.Fatal(err)
		}
		tok, _, err := ts.Sign(&u)
		if err != nil {
			t.Fatal(err)
		}
		f.tokens[name] = tok
	}

	h := NewHandler(f.repo, nil, fakeTitles{"h-4": "h-4", "db-h-4": "h-4", "db-7": "db-7"})
	r := gin.New()
	api := r.Group("/api")
	h.RegisterPublicRoutes(api)
	h.RegisterProtectedRoutes(api.Group("", auth.AuthMiddleware(ts, users)))
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, user, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+f.tokens[user])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func TestUpsert_OneReviewPerUser(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, "alice", http.MethodPost, "/api/reviews", gin.H{"movie_id": "db-h-4", "rating": 2})
	if code != http.StatusOK {
		t.Fatalf("first upsert = %d", code)
	}
	code, body := f.do(t, "alice", http.MethodPost, "/api/reviews", gin.H{"movie_id": "h-4", "rating": 5, "text": " great "})
	if code != http.StatusOK {
		t.Fatalf("second upsert = %d", code)
	}
	var got models.Review
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.MovieID != "h-4" || got.Rating != 5 || got.Text != "great" {
		t.Fatalf("review = %+v", got)
	}

	list, err := f.repo.ListByMovie(context.Background(), "h-4", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("reviews = %d, want 1", len(list))
	}
}

func TestUpsert_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		user string
		body gin.H
		want int
	}{
		{"anonymous", "", gin.H{"movie_id": "h-4", "rating": 3}, http.StatusUnauthorized},
		{"rating too high", "alice", gin.H{"movie_id": "h-4", "rating": 6}, http.StatusBadRequest},
		{"rating missing", "alice", gin.H{"movie_id": "h-4"}, http.StatusBadRequest},
		{"no movie", "alice", gin.H{"movie_id": "  ", "rating": 3}, http.StatusBadRequest},
		{"unknown movie", "alice", gin.H{"movie_id": "zzz", "rating": 3}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, body := f.do(t, tc.user, http.MethodPost, "/api/reviews", tc.body); code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", code, tc.want, body)
			}
		})
	}
}

func TestSummaryAndDelete(t *testing.T) {
	f := newFixture(t)

	f.do(t, "alice", http.MethodPost, "/api/reviews", gin.H{"movie_id": "db-7", "rating": 4})
	code, body := f.do(t, "bob", http.MethodPost, "/api/reviews", gin.H{"movie_id": "db-7", "rating": 5})
	if code != http.StatusOK {
		t.Fatalf("bob upsert = %d", code)
	}
	var bobs models.Review
	_ = json.Unmarshal(body, &bobs)

	code, body = f.do(t, "", http.MethodGet, "/api/movies/db-7/reviews/summary", nil)
	var sum models.RatingSummary
	_ = json.Unmarshal(body, &sum)
	if code != http.StatusOK || sum.Count != 2 || sum.Average != 4.5 {
		t.Fatalf("summary = %d %+v", code, sum)
	}

	path := "/api/reviews/" + strconv.FormatInt(bobs.ID, 10)
	if code, _ := f.do(t, "alice", http.MethodDelete, path, nil); code != http.StatusNotFound {
		t.Fatalf("delete by non-owner = %d", code)
	}
	if code, _ := f.do(t, "bob", http.MethodDelete, path, nil); code != http.StatusOK {
		t.Fatalf("delete by owner = %d", code)
	}

	code, body = f.do(t, "", http.MethodGet, "/api/movies/db-7/reviews", nil)
	var resp struct {
		Reviews []models.Review `json:"reviews"`
	}
	_ = json.Unmarshal(body, &resp)
	if code != http.StatusOK || len(resp.Reviews) != 1 || resp.Reviews[0].UserID != "alice" {
		t.Fatalf("list = %d %+v", code, resp)
	}
}

func TestSummary_Empty(t *testing.T) {
	f := newFixture(t)
	sum, err := f.repo.Summary(context.Background(), "h-4")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 0 || sum.Average != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}
