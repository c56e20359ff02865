// Package main runs the Pub/Sub import worker.
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

	"github.com/go-chi/chi/v5"

	"github.com/travelrecap/travelrecap/internal/api/middleware"
	"github.com/travelrecap/travelrecap/internal/api/response"
	"github.com/travelrecap/travelrecap/internal/config"
	"github.com/travelrecap/travelrecap/internal/database"
	"github.com/travelrecap/travelrecap/internal/fetch"
	"github.com/travelrecap/travelrecap/internal/geo"
	"github.com/travelrecap/travelrecap/internal/importer"
	"github.com/travelrecap/travelrecap/internal/logging"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/telemetry"
	"github.com/travelrecap/travelrecap/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "travelrecap-worker"

	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.New(cfg.Logging, serviceName, Version)
	log.Info().Str("build_time", BuildTime).Msg("starting import worker")

	if !cfg.Database.Enabled {
		log.Fatal().Msg("the import worker requires a database")
	}
	if cfg.Worker.ProjectID == "" || cfg.Worker.SubscriptionID == "" {
		log.Fatal().Msg("pubsub project and subscription must be configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		if err := tp.ShutdownWithin(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	pipeline, err := telemetry.NewPipeline()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}

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
	repo := place.NewPostgresRepository(pool)

	fetchCfg := fetch.DefaultClientConfig("exports")
	fetchCfg.Metrics = pipeline
	loader := fetch.NewLoader(fetch.NewClient(fetchCfg))

	lookup := geo.LoadLookup(ctx, loader, cfg.Boundaries.Source, log)

	imp := importer.New(importer.Config{
		Repository: repo,
		Resolver:   geo.WithMetrics(lookup, pipeline),
		Logger:     log,
		Metrics:    pipeline,
	})

	job := worker.NewImportJob(worker.ImportJobConfig{
		Config: worker.ImportConfig{
			Concurrency:          cfg.Worker.Concurrency,
			ProbabilityThreshold: cfg.Timeline.ProbabilityThreshold,
		},
		Logger:   log,
		Loader:   loader,
		Importer: imp,
	})

	dispatcher := worker.NewDispatcher(job, repo.Ping, log)

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:           cfg.Worker.ProjectID,
		SubscriptionName:    cfg.Worker.SubscriptionID,
		Dispatcher:          dispatcher,
		Logger:              log,
		MaxDeliveryAttempts: cfg.Worker.MaxDeliveryAttempts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if err := handler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}()

	// Health server for the platform's liveness check.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]any{
			"status":  "healthy",
			"version": Version,
			"imports": job.MetricsSnapshot(),
		})
	})
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Worker.HealthPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go func() {
		if err := handler.Start(ctx); err != nil {
			log.Error().Err(err).Msg("pubsub receiver stopped")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
