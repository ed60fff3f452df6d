package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"trailerhub/pkg/database"
)

func newRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "news.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepo(db)
	h := NewHandler(repo)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/newsletter"))
	h.RegisterAdminRoutes(r.Group("/admin"))
	return r, repo
}

func post(r http.Handler, path string, body any) int {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestSubscribeLifecycle(t *testing.T) {
	r, repo := newRouter(t)

	steps := []struct {
		path string
		body gin.H
		want int
	}{
		{"/api/newsletter/subscribe", gin.H{"email": "Fan@Example.com ", "source": "footer"}, http.StatusCreated},
		{"/api/newsletter/subscribe", gin.H{"email": "fan@example.com"}, http.StatusOK},
		{"/api/newsletter/unsubscribe", gin.H{"email": "fan@example.com"}, http.StatusOK},
		{"/api/newsletter/unsubscribe", gin.H{"email": "fan@example.com"}, http.StatusNotFound},
		{"/api/newsletter/subscribe", gin.H{"email": "fan@example.com"}, http.StatusCreated},
		{"/api/newsletter/subscribe", gin.H{"email": "not-an-email"}, http.StatusBadRequest},
		{"/api/newsletter/unsubscribe", gin.H{"email": "nobody@example.com"}, http.StatusNotFound},
	}
	for i, s := range steps {
		if got := post(r, s.path, s.body); got != s.want {
			t.Fatalf("step %d %s = %d, want %d", i, s.path, got, s.want)
		}
	}

	sub, err := repo.GetByEmail(context.Background(), "fan@example.com")
	if err != nil || sub == nil {
		t.Fatalf("GetByEmail = %v, %v", sub, err)
	}
	if sub.UnsubscribedAt != nil {
		t.Fatal("resubscribe must clear unsubscribed_at")
	}
	if sub.Source != "footer" {
		t.Fatalf("source = %q, want original source kept", sub.Source)
	}
}

func TestAdminList(t *testing.T) {
	r, repo := newRouter(t)
	ctx := context.Background()
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, _, err := repo.Subscribe(ctx, e, ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.Unsubscribe(ctx, "b@example.com"); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?active=false", 3},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/newsletter"+tc.query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var resp struct {
			Total int `json:"total"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if w.Code != http.StatusOK || resp.Total != tc.want {
			t.Fatalf("list%s = %d total %d, want %d", tc.query, w.Code, resp.Total, tc.want)
		}
	}
}
