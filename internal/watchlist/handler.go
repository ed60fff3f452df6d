package watchlist

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
	"trailerhub/internal/logging"
	"trailerhub/internal/sync"
	"trailerhub/pkg/models"
)

// TitleLookup turns a display id into a movie. A nil movie means unknown.
type TitleLookup interface {
	Title(ctx context.Context, id string) (*models.Movie, error)
}

type Handler struct {
	Repo *Repo
	Hub  *sync.Hub
	// Titles hydrates listed ids into movies when set.
	Titles TitleLookup
}

func NewHandler(repo *Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterRoutes expects rg to be behind auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/watchlist", h.list)
	rg.POST("/watchlist", h.add)
	rg.GET("/watchlist/:movie_id", h.status)
	rg.DELETE("/watchlist/:movie_id", h.remove)
}

func normalizeList(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "watchlist", "watch_list", "watch list":
		return models.ListWatchlist
	case "favorite", "favorites", "favourite", "favourites":
		return models.ListFavorite
	default:
		return ""
	}
}

type addReq struct {
	MovieID string `json:"movie_id"`
	List    string `json:"list"`
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	movieID := strings.TrimSpace(req.MovieID)
	if movieID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "movie_id required"})
		return
	}
	list := normalizeList(req.List)
	if list == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "list must be one of: watchlist, favorite"})
		return
	}

	if h.Titles != nil {
		m, err := h.Titles.Title(c.Request.Context(), movieID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if m == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
			return
		}
		movieID = m.ID
	}

	item := models.WatchlistItem{UserID: claims.UserID, MovieID: movieID, List: list}
	created, err := h.Repo.Add(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if created {
		ev := sync.NewEvent(sync.EventWatchlistAdd, claims.UserID, movieID)
		ev.List = list
		go h.Hub.Publish(ev)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"movie_id": movieID, "list": list, "created": created})
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	list := normalizeList(c.Query("list"))
	if list == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list"})
		return
	}
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, list, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	resp := gin.H{
		"list":   list,
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	}
	if h.Titles != nil {
		movies := make([]models.Movie, 0, len(items))
		for _, it := range items {
			m, err := h.Titles.Title(c.Request.Context(), it.MovieID)
			if err != nil {
				logging.Warn().Err(err).Str("component", "watchlist").Str("movie_id", it.MovieID).Msg("hydrate failed")
				continue
			}
			if m != nil {
				movies = append(movies, *m)
			}
		}
		resp["movies"] = movies
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) status(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	movieID := strings.TrimSpace(c.Param("movie_id"))

	lists, err := h.Repo.Lists(c.Request.Context(), claims.UserID, movieID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	resp := gin.H{"movie_id": movieID, "lists": lists}
	for _, l := range []string{models.ListWatchlist, models.ListFavorite} {
		resp["in_"+l] = slices.Contains(lists, l)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	movieID := strings.TrimSpace(c.Param("movie_id"))

	list := normalizeList(c.Query("list"))
	if list == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list"})
		return
	}

	ok, err := h.Repo.Remove(c.Request.Context(), claims.UserID, movieID, list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	ev := sync.NewEvent(sync.EventWatchlistRemove, claims.UserID, movieID)
	ev.List = list
	go h.Hub.Publish(ev)

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
