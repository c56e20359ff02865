package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Host)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Timeline, cfg.Timeline)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  env: staging
  port: 9000
database:
  host: db.internal
timeline:
  probability_threshold: 0.3
boundaries:
  source: /data/countries.geojson
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("APP_PORT", "9100")
	t.Setenv("DB_NAME", "recaps")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 9100, cfg.App.Port, "env overrides file")
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "recaps", cfg.Database.Database)
	assert.InDelta(t, 0.3, cfg.Timeline.ProbabilityThreshold, 1e-9)
	assert.Equal(t, "/data/countries.geojson", cfg.Boundaries.Source)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"threshold above one", "PROBABILITY_THRESHOLD", "1.5"},
		{"unknown env", "APP_ENV", "moon"},
		{"port out of range", "APP_PORT", "70000"},
		{"database enabled without host", "DB_HOST", ""},
		{"sample ratio above one", "OTEL_TRACES_SAMPLER_ARG", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.LoadFile("")
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_DatabaseDisabled(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "")

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	assert.False(t, cfg.Database.Enabled)
}
