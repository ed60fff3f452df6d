package reviews

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
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
}

func NewHandler(repo *Repo, hub *sync.Hub, titles TitleLookup) *Handler {
	return &Handler{Repo: repo, Hub: hub, Titles: titles}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies/:id/reviews", h.listByMovie)
	rg.GET("/movies/:id/reviews/summary", h.summary)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.upsert)
	rg.DELETE("/reviews/:id", h.delete)
}

type upsertReq struct {
	MovieID string `json:"movie_id" validate:"required,max=100"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text    string `json:"text" validate:"max=2000"`
}

func (h *Handler) upsert(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.MovieID = strings.TrimSpace(req.MovieID)
	if err := utils.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movieID, ok := h.canonical(c, req.MovieID)
	if !ok {
		return
	}

	review, err := h.Repo.Upsert(c.Request.Context(), claims.UserID, movieID, req.Rating, strings.TrimSpace(req.Text))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	ev := sync.NewEvent(sync.EventReviewUpsert, claims.UserID, movieID)
	ev.Rating = review.Rating
	go h.Hub.Publish(ev)

	c.JSON(http.StatusOK, review)
}

// canonical maps a route or body id to the id reviews are stored under.
// It writes the error response itself when it returns false.
func (h *Handler) canonical(c *gin.Context, id string) (string, bool) {
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

func (h *Handler) listByMovie(c *gin.Context) {
	movieID, ok := h.canonical(c, strings.TrimSpace(c.Param("id")))
	if !ok {
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	reviews, err := h.Repo.ListByMovie(c.Request.Context(), movieID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":   limit,
		"offset":  offset,
		"reviews": reviews,
	})
}

func (h *Handler) summary(c *gin.Context) {
	movieID, ok := h.canonical(c, strings.TrimSpace(c.Param("id")))
	if !ok {
		return
	}

	sum, err := h.Repo.Summary(c.Request.Context(), movieID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	sum.Average = math.Round(sum.Average*10) / 10
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), id, claims.UserID)
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

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
