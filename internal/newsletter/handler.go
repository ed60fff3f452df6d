package newsletter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/logging"
	"trailerhub/pkg/utils"
)

type Handler struct {
	Repo  *Repo
	Limit gin.HandlerFunc
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	limit := h.Limit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	rg.POST("/subscribe", limit, h.subscribe)
	rg.POST("/unsubscribe", limit, h.unsubscribe)
}

// RegisterAdminRoutes expects rg to be behind auth.AdminOnly.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/newsletter", h.list)
}

type subscribeReq struct {
	Email  string `json:"email" validate:"required,email,max=255"`
	Source string `json:"source" validate:"max=50"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Source = strings.TrimSpace(req.Source)
	if err := utils.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, created, err := h.Repo.Subscribe(c.Request.Context(), req.Email, req.Source)
	if err != nil {
		logging.Error().Err(err).Str("component", "newsletter").Msg("subscribe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "already subscribed", "subscriber": sub})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subscribed", "subscriber": sub})
}

type unsubscribeReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) unsubscribe(c *gin.Context) {
	var req unsubscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.Repo.Unsubscribe(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unsubscribe failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not subscribed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

func (h *Handler) list(c *gin.Context) {
	activeOnly := c.Query("active") != "false"
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	subs, total, err := h.Repo.List(c.Request.Context(), activeOnly, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscribers": subs,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
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
