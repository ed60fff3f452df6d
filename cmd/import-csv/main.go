package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gosimple/slug"

	"trailerhub/internal/bulk"
	"trailerhub/internal/logging"
	"trailerhub/internal/movies"
	"trailerhub/internal/trailers"
	"trailerhub/pkg/database"
	"trailerhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		moviesIn   = flag.String("movies", "data/movies.csv", "input CSV path for movies (empty to skip)")
		trailersIn = flag.String("trailers", "data/upcoming_trailers.csv", "input CSV path for upcoming trailers (empty to skip)")
	)
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)
	log := logging.With("import-csv")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if *moviesIn != "" {
		n, err := importMovies(ctx, movies.NewRepo(db), *moviesIn)
		if err != nil {
			log.Fatal().Err(err).Str("path", *moviesIn).Msg("import movies failed")
		}
		log.Info().Int("rows", n).Str("path", *moviesIn).Msg("imported movies")
	}
	if *trailersIn != "" {
		n, err := importTrailers(ctx, trailers.NewRepo(db), *trailersIn)
		if err != nil {
			log.Fatal().Err(err).Str("path", *trailersIn).Msg("import trailers failed")
		}
		log.Info().Int("rows", n).Str("path", *trailersIn).Msg("imported upcoming trailers")
	}
}

func importMovies(ctx context.Context, repo *movies.Repo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	recs, err := bulk.ReadMovies(f)
	if err != nil {
		return 0, err
	}
	for _, m := range recs {
		if m.ID == "" {
			// rows without an id are matched on title and year
			existing, err := repo.FindByTitleYear(ctx, m.Title, m.Year)
			if err != nil {
				return 0, err
			}
			if existing != nil {
				m.ID = existing.ID
			}
		}
		m.ID = movies.BackendID(m.ID)
		m.Category = slug.Make(m.Category)
		if m.Category == "" {
			return 0, fmt.Errorf("movie %q has no category", m.Title)
		}
		if err := repo.Upsert(ctx, m); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", m.ID, err)
		}
	}
	return len(recs), nil
}

func importTrailers(ctx context.Context, repo *trailers.Repo, path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	list, err := bulk.ReadTrailers(f)
	if err != nil {
		return 0, err
	}
	for _, t := range list {
		if err := repo.Upsert(ctx, t); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", t.ID, err)
		}
	}
	return len(list), nil
}
