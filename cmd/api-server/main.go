package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"trailerhub/internal/auth"
	"trailerhub/internal/browse"
	"trailerhub/internal/catalog"
	"trailerhub/internal/comments"
	"trailerhub/internal/compose"
	"trailerhub/internal/logging"
	"trailerhub/internal/metrics"
	"trailerhub/internal/movies"
	"trailerhub/internal/newsletter"
	"trailerhub/internal/reviews"
	synchub "trailerhub/internal/sync"
	"trailerhub/internal/tmdb"
	"trailerhub/internal/trailers"
	"trailerhub/internal/watchlist"
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
	log := logging.With("api-server")

	db, err := database.OpenMigrated(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("open database")
	}
	defer db.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(), metrics.GinMiddleware())
	if len(cfg.Server.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(cfg.Server.TrustedProxies)
	} else {
		_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	}

	hub := synchub.NewHub()
	router.GET("/ws", synchub.WSHandler(hub))
	router.GET("/metrics", metrics.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Database.Path})
	})
	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	// Content
	cat := catalog.MustDefault()
	movieRepo := movies.NewRepo(db)
	trailerRepo := trailers.NewRepo(db)
	composer := compose.New(cat, movieRepo, trailerRepo)
	titles := browse.NewTitles(composer.Resolver, movieRepo, trailerRepo)

	movieHandler := movies.NewHandler(movieRepo)
	if cfg.TMDB.APIKey != "" {
		movieHandler.Enricher = tmdb.New(tmdb.Config{
			APIKey:       cfg.TMDB.APIKey,
			BaseURL:      cfg.TMDB.BaseURL,
			ImageBaseURL: cfg.TMDB.ImageBaseURL,
			Timeout:      cfg.TMDB.Timeout,
		})
	}
	trailerHandler := trailers.NewHandler(trailerRepo)

	api := router.Group("/api")
	movieHandler.RegisterRoutes(api.Group("/movies"))
	trailerHandler.RegisterRoutes(api.Group("/upcoming-trailers"))
	browse.NewHandler(composer, titles).RegisterRoutes(api)

	limiter := auth.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	reviewHandler := reviews.NewHandler(reviews.NewRepo(db), hub, titles)
	reviewHandler.RegisterPublicRoutes(api)
	commentHandler := comments.NewHandler(comments.NewRepo(db), hub, titles)
	commentHandler.Limit = limiter.Middleware()
	commentHandler.RegisterPublicRoutes(api)

	newsHandler := newsletter.NewHandler(newsletter.NewRepo(db))
	newsHandler.Limit = limiter.Middleware()
	newsHandler.RegisterRoutes(api.Group("/newsletter"))

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	if promoted, err := authRepo.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail); err != nil {
		log.Warn().Err(err).Msg("ensure admin")
	} else if promoted {
		log.Info().Str("email", cfg.Auth.AdminEmail).Msg("promoted admin")
	}
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.AdminEmail = cfg.Auth.AdminEmail
	authHandler.Limit = limiter.Middleware()
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	wl := watchlist.NewHandler(watchlist.NewRepo(db), hub)
	wl.Titles = titles
	wl.RegisterRoutes(protected)
	reviewHandler.RegisterProtectedRoutes(protected)
	commentHandler.RegisterProtectedRoutes(protected)

	// Admin
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc, authRepo), auth.AdminOnly())
	movieHandler.RegisterAdminRoutes(admin.Group("/movies"))
	trailerHandler.RegisterAdminRoutes(admin.Group("/upcoming-trailers"))
	authHandler.RegisterAdminRoutes(admin)
	newsHandler.RegisterAdminRoutes(admin)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("server stopped")
}
