package movies

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"trailerhub/internal/logging"
	"trailerhub/internal/reconcile"
	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

// Enricher looks up artwork for a title. Either return value may be empty.
type Enricher interface {
	Lookup(ctx context.Context, title string, year int) (posterURL, trailerURL string, err error)
}

type Handler struct {
	Repo *Repo
	// Enricher is optional; without it the enrich endpoint answers 503.
	Enricher Enricher
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)        // GET /api/movies
	rg.GET("/:id", h.getByID) // GET /api/movies/:id
}

// RegisterAdminRoutes expects rg to be behind AuthMiddleware and AdminOnly.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/enrich", h.enrich)
}

func (h *Handler) list(c *gin.Context) {
	q := models.MovieQuery{
		Category: c.Query("category"),
		Q:        c.Query("q"),
		Featured: parseBool(c.Query("featured")),
		Trending: parseBool(c.Query("trending")),
		Latest:   parseBool(c.Query("latest")),
		Limit:    parseInt(c.Query("limit"), 20),
		Offset:   parseInt(c.Query("offset"), 0),
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	items, err := h.Repo.ListMovies(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movies": items,
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	m, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie": m})
}

type movieInput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required,max=200"`
	Year        int      `json:"year" validate:"gte=1888,lte=2100"`
	PosterURL   string   `json:"poster_url" validate:"omitempty,url"`
	TrailerURL  string   `json:"trailer_url" validate:"omitempty,url"`
	Category    string   `json:"category" validate:"required,max=64"`
	IsFeatured  bool     `json:"is_featured"`
	IsTrending  bool     `json:"is_trending"`
	IsLatest    bool     `json:"is_latest"`
	Genres      []string `json:"genres" validate:"max=10,dive,required,max=40"`
	Description string   `json:"description" validate:"max=5000"`
}

func (in movieInput) record(id string) models.MovieRecord {
	genres := make([]string, 0, len(in.Genres))
	for _, g := range in.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return models.MovieRecord{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Year:        in.Year,
		PosterURL:   strings.TrimSpace(in.PosterURL),
		TrailerURL:  strings.TrimSpace(in.TrailerURL),
		Category:    slug.Make(in.Category),
		IsFeatured:  in.IsFeatured,
		IsTrending:  in.IsTrending,
		IsLatest:    in.IsLatest,
		Genres:      genres,
		Description: strings.TrimSpace(in.Description),
	}
}

func bindInput(c *gin.Context) (movieInput, bool) {
	var in movieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return in, false
	}
	if err := utils.ValidateStruct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return in, false
	}
	return in, true
}

// BackendID returns id with the backend prefix, minting a new one when empty.
func BackendID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return reconcile.BackendIDPrefix + uuid.NewString()
	}
	if !reconcile.IsBackendID(id) {
		return reconcile.BackendIDPrefix + id
	}
	return id
}

func (h *Handler) create(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	rec := in.record(BackendID(in.ID))

	ctx := c.Request.Context()
	if existing, err := h.Repo.GetByID(ctx, rec.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	} else if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "movie already exists"})
		return
	}

	if err := h.Repo.Create(ctx, rec); err != nil {
		logging.Error().Err(err).Str("component", "movies").Str("id", rec.ID).Msg("create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	h.respondWith(c, http.StatusCreated, rec.ID)
}

func (h *Handler) update(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	rec := in.record(c.Param("id"))

	found, err := h.Repo.Update(c.Request.Context(), rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.respondWith(c, http.StatusOK, rec.ID)
}

func (h *Handler) delete(c *gin.Context) {
	found, err := h.Repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// enrich fills a missing poster or trailer from the metadata provider.
func (h *Handler) enrich(c *gin.Context) {
	if h.Enricher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enrichment disabled"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.Repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	poster, trailer, err := h.Enricher.Lookup(ctx, m.Title, m.Year)
	if err != nil {
		logging.Warn().Err(err).Str("component", "movies").Str("id", m.ID).Msg("enrich lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "metadata provider unavailable"})
		return
	}

	changed := false
	if m.PosterURL == "" && poster != "" {
		m.PosterURL, changed = poster, true
	}
	if m.TrailerURL == "" && trailer != "" {
		m.TrailerURL, changed = trailer, true
	}
	if changed {
		if _, err := h.Repo.Update(ctx, *m); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"movie": m, "changed": changed})
}

func (h *Handler) respondWith(c *gin.Context, status int, id string) {
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil || m == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed"})
		return
	}
	c.JSON(status, gin.H{"movie": m})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseBool returns nil for an absent or unparseable flag.
func parseBool(s string) *bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
