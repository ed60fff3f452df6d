package comments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
	"trailerhub/pkg/database"
	"trailerhub/pkg/models"
)

func ptr(n int64) *int64 { return &n }

func TestBuildTree(t *testing.T) {
	flat := []models.Comment{
		{ID: 1, Body: "root a"},
		{ID: 2, Body: "root b"},
		{ID: 3, ParentID: ptr(1), Body: "a.1"},
		{ID: 4, ParentID: ptr(3), Body: "a.1.1"},
		{ID: 5, ParentID: ptr(1), Body: "a.2"},
		{ID: 6, ParentID: ptr(99), Body: "orphan"},
	}

	tree := BuildTree(flat)
	if len(tree) != 3 {
		t.Fatalf("roots = %d, want 3", len(tree))
	}
	if tree[0].ID != 1 || tree[1].ID != 2 || tree[2].ID != 6 {
		t.Fatalf("root order = %d,%d,%d", tree[0].ID, tree[1].ID, tree[2].ID)
	}
	a := tree[0]
	if len(a.Replies) != 2 || a.Replies[0].ID != 3 || a.Replies[1].ID != 5 {
		t.Fatalf("replies of 1 = %+v", a.Replies)
	}
	if len(a.Replies[0].Replies) != 1 || a.Replies[0].Replies[0].ID != 4 {
		t.Fatalf("replies of 3 = %+v", a.Replies[0].Replies)
	}
	if tree[1].Replies == nil {
		t.Fatal("leaf replies must be an empty slice, not nil")
	}
	if got := Count(tree); got != len(flat) {
		t.Fatalf("Count = %d, want %d", got, len(flat))
	}
}

func TestBuildTree_Empty(t *testing.T) {
	if got := BuildTree(nil); len(got) != 0 {
		t.Fatalf("BuildTree(nil) = %v", got)
	}
}

type canon struct{}

func (canon) Title(_ context.Context, id string) (*models.Movie, error) {
	switch id {
	case "h-4", "db-h-4":
		return &models.Movie{ID: "h-4"}, nil
	case "h-1":
		return &models.Movie{ID: "h-1"}, nil
	}
	return nil, nil
}

type env struct {
	router *gin.Engine
	tokens map[string]string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "comments.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := auth.NewRepo(db)
	ts := auth.TokenService{Secret: []byte("k"), Issuer: "test", Duration: time.Hour}
	e := &env{tokens: map[string]string{}}
	for _, u := range []auth.User{
		{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: auth.RoleUser},
		{ID: "u2", Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: auth.RoleUser},
		{ID: "u3", Username: "root", Email: "root@example.com", PasswordHash: "x", Role: auth.RoleAdmin},
	} {
		if err := users.CreateUser(context.Background(), u); err != nil {
			t.Fatal(err)
		}
		tok, _, err := ts.Sign(&u)
		if err != nil {
			t.Fatal(err)
		}
		e.tokens[u.Username] = tok
	}

	h := NewHandler(NewRepo(db), nil, canon{})
	r := gin.New()
	api := r.Group("/api")
	h.RegisterPublicRoutes(api)
	h.RegisterProtectedRoutes(api.Group("", auth.AuthMiddleware(ts, users)))
	e.router = r
	return e
}

func (e *env) do(t *testing.T, user, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[user])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func (e *env) post(t *testing.T, user, movie string, body gin.H) models.Comment {
	t.Helper()
	code, raw := e.do(t, user, http.MethodPost, "/api/movies/"+movie+"/comments", body)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %s", code, raw)
	}
	var resp struct {
		Comment models.Comment `json:"comment"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Comment
}

func (e *env) thread(t *testing.T, movie string) []models.Comment {
	t.Helper()
	code, raw := e.do(t, "", http.MethodGet, "/api/movies/"+movie+"/comments", nil)
	if code != http.StatusOK {
		t.Fatalf("list = %d %s", code, raw)
	}
	var resp struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Comments
}

func TestThreadFlow(t *testing.T) {
	e := newEnv(t)

	if got := e.thread(t, "h-4"); len(got) != 0 {
		t.Fatalf("empty thread = %v", got)
	}

	root := e.post(t, "alice", "db-h-4", gin.H{"body": "first"})
	if root.MovieID != "h-4" || root.Username != "alice" {
		t.Fatalf("root = %+v", root)
	}
	reply := e.post(t, "bob", "h-4", gin.H{"body": "reply", "parent_id": root.ID})
	if reply.ParentID == nil || *reply.ParentID != root.ID {
		t.Fatalf("reply parent = %v", reply.ParentID)
	}

	tree := e.thread(t, "h-4")
	if len(tree) != 1 || len(tree[0].Replies) != 1 || tree[0].Replies[0].Username != "bob" {
		t.Fatalf("tree = %+v", tree)
	}

	// a parent from another movie is rejected
	code, _ := e.do(t, "bob", http.MethodPost, "/api/movies/h-1/comments", gin.H{"body": "x", "parent_id": root.ID})
	if code != http.StatusBadRequest {
		t.Fatalf("cross-movie reply = %d", code)
	}

	del := fmt.Sprintf("/api/comments/%d", root.ID)
	if code, _ := e.do(t, "bob", http.MethodDelete, del, nil); code != http.StatusNotFound {
		t.Fatalf("delete by non-owner = %d", code)
	}
	if code, _ := e.do(t, "root", http.MethodDelete, del, nil); code != http.StatusOK {
		t.Fatalf("delete by admin = %d", code)
	}
	if got := e.thread(t, "h-4"); len(got) != 0 {
		t.Fatalf("thread after delete = %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name  string
		user  string
		movie string
		body  gin.H
		want  int
	}{
		{"anonymous", "", "h-4", gin.H{"body": "hi"}, http.StatusUnauthorized},
		{"blank body", "alice", "h-4", gin.H{"body": "   "}, http.StatusBadRequest},
		{"unknown movie", "alice", "nope", gin.H{"body": "hi"}, http.StatusNotFound},
		{"missing parent", "alice", "h-4", gin.H{"body": "hi", "parent_id": 42}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, raw := e.do(t, tc.user, http.MethodPost, "/api/movies/"+tc.movie+"/comments", tc.body)
			if code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", code, tc.want, raw)
			}
		})
	}
}
