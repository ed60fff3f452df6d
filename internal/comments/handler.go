package comments

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
	"trailerhub/internal/logging"
	"trailerhub/internal/sync"
	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

// TitleLookup canonicalizes a display id. A nil movie means unknown.
type TitleLookup interface {
	Title(ctx context.Context, id string) (*models.Movie, error)
}

type Handler struct {
	Repo   *Repo
	Hub    *sync.Hub
	Titles TitleLookup
	// Limit guards comment creation when set.
	Limit gin.HandlerFunc
}

func NewHandler(repo *Repo, hub *sync.Hub, titles TitleLookup) *Handler {
	return &Handler{Repo: repo, Hub: hub, Titles: titles}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies/:id/comments", h.list)
}

// RegisterProtectedRoutes expects rg to be behind auth.AuthMiddleware.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	limit := h.Limit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	rg.POST("/movies/:id/comments", limit, h.create)
	rg.DELETE("/comments/:id", h.delete)
}

func (h *Handler) movieID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "movie id required"})
		return "", false
	}
	if h.Titles == nil {
		return id, true
	}
	m, err := h.Titles.Title(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return "", false
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
		return "", false
	}
	return m.ID, true
}

func (h *Handler) list(c *gin.Context) {
	movieID, ok := h.movieID(c)
	if !ok {
		return
	}

	flat, err := h.Repo.ListByMovie(c.Request.Context(), movieID)
	if err != nil {
		logging.Error().Err(err).Str("component", "comments").Str("movie_id", movieID).Msg("list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}

	tree := BuildTree(flat)
	if tree == nil {
		tree = []models.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": tree})
}

type createReq struct {
	Body     string `json:"body" validate:"required,max=2000"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if err := utils.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movieID, ok := h.movieID(c)
	if !ok {
		return
	}

	cm, err := h.Repo.Create(c.Request.Context(), movieID, claims.UserID, req.ParentID, req.Body)
	if errors.Is(err, ErrBadParent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	go h.Hub.Publish(sync.NewEvent(sync.EventCommentCreate, claims.UserID, movieID))

	c.JSON(http.StatusCreated, gin.H{"comment": cm})
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), id, claims.UserID, claims.IsAdmin())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
