// Package api assembles the HTTP API of the travel recap service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	// Registers the Swagger document served under /swagger/.
	_ "github.com/travelrecap/travelrecap/docs"
	"github.com/travelrecap/travelrecap/internal/api/handler"
	"github.com/travelrecap/travelrecap/internal/api/middleware"
	"github.com/travelrecap/travelrecap/internal/recap"
	"github.com/travelrecap/travelrecap/internal/telemetry"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Pipeline    *telemetry.Pipeline

	// Places serves stored locations. Store backs the readiness check and
	// may be nil when no database is configured.
	Places handler.PlaceLister
	Store  handler.ReadinessChecker

	Resolver     timeline.CountryResolver
	BoundarySize func() int
	Fetchers     []handler.FetcherHealth
	RecapOptions []recap.Option

	ProbabilityThreshold float64
	MaxUploadBytes       int64
	CORSOrigins          []string
	RequireTLS           bool
	// RateLimit is requests per minute per IP on read endpoints.
	RateLimit int
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "travelrecap-api"
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id", "traceparent"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Store:        cfg.Store,
		Fetchers:     cfg.Fetchers,
		BoundarySize: cfg.BoundarySize,
	})
	placeHandler := handler.NewPlaceHandler(cfg.Places, cfg.Logger)
	recapHandler := handler.NewRecapHandler(handler.RecapConfig{
		Resolver:         cfg.Resolver,
		DefaultThreshold: cfg.ProbabilityThreshold,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		Metrics:          cfg.Pipeline,
		Logger:           cfg.Logger,
		Options:          cfg.RecapOptions,
	})

	standardRateLimit := middleware.RateLimitByIP(middleware.PerMinute(cfg.RateLimit))
	uploadRateLimit := middleware.RateLimitByIP(middleware.UploadRateLimit)

	// Path kept from the first map frontend.
	r.With(middleware.ContentTypeJSON, standardRateLimit).
		Get("/api/place-locations", placeHandler.ListPlaceLocations)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.With(standardRateLimit).Get("/place-locations", placeHandler.ListPlaceLocations)

		r.With(uploadRateLimit, middleware.RequireJSON).Post("/recaps", recapHandler.CreateRecap)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	return r
}
