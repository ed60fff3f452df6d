package trailers

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
	"trailerhub/pkg/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "trailers.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepo(db)
	h := NewHandler(repo)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/upcoming-trailers"))
	h.RegisterAdminRoutes(r.Group("/admin/upcoming-trailers"))
	return r, repo
}

func do(t *testing.T, r http.Handler, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func TestTrailers_CRUDAndReleasedFilter(t *testing.T) {
	r, repo := newTestRouter(t)

	code, raw := do(t, r, http.MethodPost, "/admin/upcoming-trailers", gin.H{
		"title": "Future Film", "category": "Sci Fi", "release_date": "2027-05-01",
	})
	if code != http.StatusCreated {
		t.Fatalf("create = %d %s", code, raw)
	}
	var created struct {
		Trailer models.UpcomingTrailer `json:"trailer"`
	}
	_ = json.Unmarshal(raw, &created)
	if created.Trailer.ID == "" || created.Trailer.Category != "sci-fi" {
		t.Fatalf("created = %+v", created.Trailer)
	}

	if code, _ := do(t, r, http.MethodPost, "/admin/upcoming-trailers", gin.H{"title": "Bad", "release_date": "May 2027"}); code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", code)
	}

	_ = repo.Create(context.Background(), models.UpcomingTrailer{ID: "old", Title: "Old Film", ReleaseDate: "2020-01-01", IsReleased: true})

	var list struct {
		Trailers []models.UpcomingTrailer `json:"trailers"`
	}
	code, raw = do(t, r, http.MethodGet, "/api/upcoming-trailers?released=false", nil)
	_ = json.Unmarshal(raw, &list)
	if code != http.StatusOK || len(list.Trailers) != 1 || list.Trailers[0].Title != "Future Film" {
		t.Fatalf("unreleased = %d %s", code, raw)
	}

	code, raw = do(t, r, http.MethodGet, "/api/upcoming-trailers", nil)
	_ = json.Unmarshal(raw, &list)
	if len(list.Trailers) != 2 || list.Trailers[0].ID != "old" {
		t.Fatalf("all = %s", raw)
	}

	if code, _ := do(t, r, http.MethodGet, "/api/upcoming-trailers?released=maybe", nil); code != http.StatusBadRequest {
		t.Fatalf("bad flag status = %d", code)
	}

	upcoming, err := repo.ListUpcoming(context.Background())
	if err != nil || len(upcoming) != 1 {
		t.Fatalf("ListUpcoming = %v, %v", upcoming, err)
	}

	id := created.Trailer.ID
	code, _ = do(t, r, http.MethodPut, "/admin/upcoming-trailers/"+id, gin.H{"title": "Future Film", "release_date": "2027-05-01", "is_released": true})
	if code != http.StatusOK {
		t.Fatalf("update = %d", code)
	}
	if code, _ := do(t, r, http.MethodDelete, "/admin/upcoming-trailers/"+id, nil); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/api/upcoming-trailers/"+id, nil); code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", code)
	}
}
