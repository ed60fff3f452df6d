package main

import (
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"trailerhub/internal/logging"
	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)
	log := logging.With("mirror-server")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware())

	// serves mirror.data_path at GET /titles, re-read on every request
	router.GET("/titles", func(c *gin.Context) {
		titles, err := readMirror(cfg.Mirror.DataPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if cat := strings.TrimSpace(c.Query("category")); cat != "" {
			filtered := make([]models.MirrorTitle, 0, len(titles))
			for _, t := range titles {
				if strings.EqualFold(t.Category, cat) {
					filtered = append(filtered, t)
				}
			}
			titles = filtered
		}
		c.JSON(http.StatusOK, titles)
	})

	log.Info().Str("addr", cfg.Mirror.Addr).Str("data", cfg.Mirror.DataPath).Msg("mirror-server listening")
	if err := router.Run(cfg.Mirror.Addr); err != nil {
		log.Fatal().Err(err).Msg("mirror-server stopped")
	}
}

// readMirror validates the file so a bad dataset fails loudly instead of
// being served as-is.
func readMirror(path string) ([]models.MirrorTitle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var titles []models.MirrorTitle
	if err := json.Unmarshal(b, &titles); err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []models.MirrorTitle{}
	}
	return titles, nil
}
