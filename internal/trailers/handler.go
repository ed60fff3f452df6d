package trailers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list) // GET /api/upcoming-trailers?released=
	rg.GET("/:id", h.getByID)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	var released *bool
	if s := strings.TrimSpace(c.Query("released")); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "released must be true or false"})
			return
		}
		released = &b
	}

	items, err := h.Repo.List(c.Request.Context(), released)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trailers": items})
}

func (h *Handler) getByID(c *gin.Context) {
	t, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trailer": t})
}

type trailerInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=64"`
	Description string `json:"description" validate:"max=5000"`
	PosterURL   string `json:"poster_url" validate:"omitempty,url"`
	ReleaseDate string `json:"release_date" validate:"required,datetime=2006-01-02"`
	TrailerURL  string `json:"trailer_url" validate:"omitempty,url"`
	IsReleased  bool   `json:"is_released"`
}

func (in trailerInput) trailer(id string) models.UpcomingTrailer {
	return models.UpcomingTrailer{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Category:    slug.Make(in.Category),
		Description: strings.TrimSpace(in.Description),
		PosterURL:   strings.TrimSpace(in.PosterURL),
		ReleaseDate: in.ReleaseDate,
		TrailerURL:  strings.TrimSpace(in.TrailerURL),
		IsReleased:  in.IsReleased,
	}
}

func bindInput(c *gin.Context) (trailerInput, bool) {
	var in trailerInput
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

func (h *Handler) create(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	t := in.trailer(uuid.NewString())
	if err := h.Repo.Create(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	h.respondWith(c, http.StatusCreated, t.ID)
}

func (h *Handler) update(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	found, err := h.Repo.Update(c.Request.Context(), in.trailer(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.respondWith(c, http.StatusOK, c.Param("id"))
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

func (h *Handler) respondWith(c *gin.Context, status int, id string) {
	t, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil || t == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed"})
		return
	}
	c.JSON(status, gin.H{"trailer": t})
}
