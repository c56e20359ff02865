// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"time"

	"github.com/travelrecap/travelrecap/internal/database"
)

// Config is the root configuration shared by the API, worker and import
// commands.
type Config struct {
	App        AppConfig        `koanf:"app"`
	Database   database.Config  `koanf:"database"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Logging    LoggingConfig    `koanf:"logging"`
	Boundaries BoundariesConfig `koanf:"boundaries"`
	Timeline   TimelineConfig   `koanf:"timeline"`
	HTTP       HTTPConfig       `koanf:"http"`
	Worker     WorkerConfig     `koanf:"worker"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Env  string `koanf:"env" validate:"oneof=development staging production test"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

// TelemetryConfig controls the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint" validate:"required_if=Enabled true"`
	SampleRatio  float64 `koanf:"sample_ratio" validate:"min=0,max=1"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// BoundariesConfig points at the GeoJSON country boundaries. An empty
// source runs without country enrichment.
type BoundariesConfig struct {
	Source       string        `koanf:"source"`
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"min=0"`
}

// TimelineConfig holds ingestion defaults.
type TimelineConfig struct {
	ProbabilityThreshold float64 `koanf:"probability_threshold" validate:"min=0,max=1"`
	// MaxUploadBytes caps recap request bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"min=1"`
}

// HTTPConfig holds HTTP surface settings.
type HTTPConfig struct {
	CORSOrigins []string `koanf:"cors_origins"`
	RequireTLS  bool     `koanf:"require_tls"`
	RateLimit   int      `koanf:"rate_limit" validate:"min=0"`
}

// WorkerConfig holds the Pub/Sub import worker settings.
type WorkerConfig struct {
	ProjectID           string `koanf:"project_id"`
	SubscriptionID      string `koanf:"subscription_id"`
	Concurrency         int    `koanf:"concurrency" validate:"min=1,max=64"`
	HealthPort          int    `koanf:"health_port" validate:"min=1,max=65535"`
	MaxDeliveryAttempts int    `koanf:"max_delivery_attempts" validate:"min=0"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:  "development",
			Port: 8080,
		},
		Database: database.DefaultConfig(),
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Boundaries: BoundariesConfig{
			FetchTimeout: 60 * time.Second,
		},
		Timeline: TimelineConfig{
			ProbabilityThreshold: 0,
			MaxUploadBytes:       256 << 20,
		},
		HTTP: HTTPConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   60,
		},
		Worker: WorkerConfig{
			Concurrency:         3,
			HealthPort:          8081,
			MaxDeliveryAttempts: 5,
		},
	}
}
