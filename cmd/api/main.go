// Package main provides the entrypoint for the travel recap API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"


	"github.com/travelrecap/travelrecap/internal/api"
	"github.com/travelrecap/travelrecap/internal/api/handler"
	"github.com/travelrecap/travelrecap/internal/api/middleware"
	"github.com/travelrecap/travelrecap/internal/config"
	"github.com/travelrecap/travelrecap/internal/database"
	"github.com/travelrecap/travelrecap/internal/fetch"
	"github.com/travelrecap/travelrecap/internal/geo"
	"github.com/travelrecap/travelrecap/internal/logging"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "travelrecap-api"

	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.Logging, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting travel recap API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		if err := tp.ShutdownWithin(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	pipeline, err := telemetry.NewPipeline()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}

	// Without a database the API serves an empty in-memory store so recaps
	// keep working.
	var repo place.Repository
	var store handler.ReadinessChecker
	if !cfg.Database.Enabled {
		log.Warn().Msg("no database configured, place locations served from memory")
		repo = place.NewInMemoryRepository()
	} else {
		if cfg.Database.Migrate {
			if err := database.Migrate(cfg.Database, log); err != nil {
				log.Fatal().Err(err).Msg("failed to apply migrations")
			}
		}
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
		repo = place.NewPostgresRepository(pool)
	}
	places := place.NewService(repo)
	if cfg.Database.Enabled {
		store = places
	}

	fetchCfg := fetch.DefaultClientConfig("boundaries")
	if cfg.Boundaries.FetchTimeout > 0 {
		fetchCfg.Timeout = cfg.Boundaries.FetchTimeout
	}
	fetchCfg.Metrics = pipeline
	boundaryClient := fetch.NewClient(fetchCfg)

	lookup := geo.LoadLookup(ctx, fetch.NewLoader(boundaryClient), cfg.Boundaries.Source, log)
	resolver := geo.WithMetrics(lookup, pipeline)

	router := api.NewRouter(api.RouterConfig{
		Version:              Version,
		BuildTime:            BuildTime,
		Logger:               log,
		ServiceName:          serviceName,
		Metrics:              metrics,
		Pipeline:             pipeline,
		Places:               places,
		Store:                store,
		Resolver:             resolver,
		BoundarySize:         resolver.Len,
		Fetchers:             []handler.FetcherHealth{boundaryClient},
		ProbabilityThreshold: cfg.Timeline.ProbabilityThreshold,
		MaxUploadBytes:       cfg.Timeline.MaxUploadBytes,
		CORSOrigins:          cfg.HTTP.CORSOrigins,
		RequireTLS:           cfg.HTTP.RequireTLS,
		RateLimit:            cfg.HTTP.RateLimit,
	})

	// Uploads can be large, so reads get more time than the default.
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
