package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable that selects the config file.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/travelrecap/config.yaml",
}

// envMappings maps environment variable names to koanf paths. Unmapped
// variables are ignored.
var envMappings = map[string]string{
	"app_env":  "app.env",
	"app_port": "app.port",

	"db_enabled":           "database.enabled",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"db_ssl_mode":          "database.ssl_mode",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",
	"db_migrate":           "database.migrate",

	"otel_enabled":                "telemetry.enabled",
	"otel_exporter_otlp_endpoint": "telemetry.otlp_endpoint",
	"otel_traces_sampler_arg":     "telemetry.sample_ratio",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"boundaries_source":        "boundaries.source",
	"boundaries_fetch_timeout": "boundaries.fetch_timeout",

	"probability_threshold": "timeline.probability_threshold",
	"max_upload_bytes":      "timeline.max_upload_bytes",

	"cors_origins": "http.cors_origins",
	"require_tls":  "http.require_tls",
	"rate_limit":   "http.rate_limit",

	"pubsub_project_id":            "worker.project_id",
	"pubsub_subscription":          "worker.subscription_id",
	"worker_concurrency":           "worker.concurrency",
	"health_port":                  "worker.health_port",
	"pubsub_max_delivery_attempts": "worker.max_delivery_attempts",
}

// sliceConfigPaths are paths that accept comma separated env values.
var sliceConfigPaths = []string{"http.cors_origins"}

var validate = validator.New()

// Load reads the configuration. Defaults are overridden by the config file,
// which is overridden by the environment.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile reads the configuration using path as the YAML layer. An empty
// path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
