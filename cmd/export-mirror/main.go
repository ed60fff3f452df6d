package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"trailerhub/internal/logging"
	"trailerhub/internal/movies"
	"trailerhub/internal/scraper"
	"trailerhub/pkg/database"
	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		outPath    = flag.String("out", "", "output JSON path (defaults to mirror.data_path)")
		category   = flag.String("category", "", "only export this category")
		limit      = flag.Int("limit", 200, "how many titles to export (0 for all)")
	)
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)
	log := logging.With("export-mirror")
	if *outPath == "" {
		*outPath = cfg.Mirror.DataPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	recs, err := movies.NewRepo(db).ListMovies(ctx, models.MovieQuery{Category: *category, Limit: *limit})
	if err != nil {
		log.Fatal().Err(err).Msg("query failed")
	}

	out := make([]models.MirrorTitle, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		m := scraper.ToMirror(rec)
		if seen[m.Slug] {
			continue
		}
		seen[m.Slug] = true
		out = append(out, m)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir failed")
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal failed")
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}

	log.Info().Int("titles", len(out)).Str("path", *outPath).Msg("exported")
}
