package main

import (
	"context"
	"flag"
	"time"

	"trailerhub/internal/logging"
	"trailerhub/internal/movies"
	"trailerhub/internal/scraper"
	"trailerhub/internal/tmdb"
	"trailerhub/pkg/database"
	"trailerhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		mirrorURL  = flag.String("mirror", "http://localhost:8090", "mirror server base URL (empty to skip)")
		htmlURL    = flag.String("html", "", "HTML listing page to scrape (empty to skip)")
		tmdbPages  = flag.Int("tmdb-pages", 2, "popular pages to pull from TMDB")
		category   = flag.String("category", "hollywood", "category for entries that carry none")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	)
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)
	log := logging.With("ingest")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	var sources []scraper.Source
	if cfg.TMDB.APIKey != "" {
		client := tmdb.New(tmdb.Config{
			APIKey:       cfg.TMDB.APIKey,
			BaseURL:      cfg.TMDB.BaseURL,
			ImageBaseURL: cfg.TMDB.ImageBaseURL,
			Timeout:      cfg.TMDB.Timeout,
		})
		sources = append(sources, scraper.NewTMDBSource(client, *tmdbPages, *category))
	} else {
		log.Info().Msg("tmdb api key not set, skipping tmdb")
	}
	if *mirrorURL != "" {
		sources = append(sources, scraper.NewMirrorSource(*mirrorURL))
	}
	if *htmlURL != "" {
		sources = append(sources, scraper.NewHTMLSource(*htmlURL))
	}
	if len(sources) == 0 {
		log.Fatal().Msg("no sources configured")
	}

	entries, err := scraper.NewAggregator(sources...).FetchAndMerge(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}
	log.Info().Int("entries", len(entries)).Msg("merged")

	stats, err := scraper.SaveToDatabase(ctx, movies.NewRepo(db), entries, *category)
	if err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}
	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("unchanged", stats.Unchanged).
		Str("db", cfg.Database.Path).
		Msg("database populated")
}
