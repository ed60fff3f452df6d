// Package browse serves the composed, read-only views: categories, search
// and single titles.
package browse

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/compose"
	"trailerhub/internal/logging"
)

type Handler struct {
	Composer *compose.Composer
	Titles   *Titles
}

func NewHandler(c *compose.Composer, t *Titles) *Handler {
	return &Handler{Composer: c, Titles: t}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.categories)
	rg.GET("/categories/:id", h.category)
	rg.GET("/search", h.search)
	rg.GET("/titles/:id", h.title)
}

func (h *Handler) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.Composer.Categories(c.Request.Context())})
}

func (h *Handler) category(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	cat, err := h.Composer.Category(c.Request.Context(), id)
	if errors.Is(err, compose.ErrUnknownCategory) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "compose failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (h *Handler) search(c *gin.Context) {
	results := h.Composer.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"query": strings.TrimSpace(c.Query("q")), "results": results})
}

func (h *Handler) title(c *gin.Context) {
	id := c.Param("id")
	m, err := h.Titles.Title(c.Request.Context(), id)
	if err != nil {
		logging.Error().Err(err).Str("component", "browse").Str("id", id).Msg("title lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie": m})
}
