package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"trailerhub/internal/browse"
	"trailerhub/internal/catalog"
	"trailerhub/internal/compose"
	"trailerhub/internal/grpcserver"
	"trailerhub/internal/logging"
	"trailerhub/internal/movies"
	"trailerhub/internal/trailers"
	"trailerhub/pkg/database"
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
	log := logging.With("grpc-server")

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("grpc listen failed")
	}

	movieRepo := movies.NewRepo(db)
	trailerRepo := trailers.NewRepo(db)
	composer := compose.New(catalog.MustDefault(), movieRepo, trailerRepo)
	titles := browse.NewTitles(composer.Resolver, movieRepo, trailerRepo)

	grpcServer, health := grpcserver.New(grpcserver.NewServer(composer, titles))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		health.Shutdown()
		grpcServer.GracefulStop()
	}()

	log.Info().Str("addr", cfg.Server.GRPCAddr).Msg("gRPC server listening")
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatal().Err(err).Msg("grpc server stopped")
	}
}
