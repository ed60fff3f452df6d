package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"trailerhub/internal/bulk"
	"trailerhub/internal/logging"
	"trailerhub/internal/movies"
	"trailerhub/internal/trailers"
	"trailerhub/pkg/database"
	"trailerhub/pkg/models"
	"trailerhub/pkg/utils"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		moviesOut   = flag.String("movies", "data/movies.csv", "output CSV path for movies")
		trailersOut = flag.String("trailers", "data/upcoming_trailers.csv", "output CSV path for upcoming trailers")
	)
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)
	log := logging.With("export-csv")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	recs, err := movies.NewRepo(db).ListMovies(ctx, models.MovieQuery{})
	if err != nil {
		log.Fatal().Err(err).Msg("list movies")
	}
	if err := writeFile(*moviesOut, func(f *os.File) error { return bulk.WriteMovies(f, recs) }); err != nil {
		log.Fatal().Err(err).Msg("export movies failed")
	}

	list, err := trailers.NewRepo(db).List(ctx, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("list trailers")
	}
	if err := writeFile(*trailersOut, func(f *os.File) error { return bulk.WriteTrailers(f, list) }); err != nil {
		log.Fatal().Err(err).Msg("export trailers failed")
	}

	log.Info().
		Int("movies", len(recs)).Str("movies_path", *moviesOut).
		Int("trailers", len(list)).Str("trailers_path", *trailersOut).
		Msg("exported")
}

func writeFile(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
