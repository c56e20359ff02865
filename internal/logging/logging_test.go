package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/config"
	"github.com/travelrecap/travelrecap/internal/logging"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "travelrecap-api", "1.2.3")

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "travelrecap-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "loud"}, "svc", "dev")

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "console"}, "svc", "dev")

	log.Debug().Msg("pretty")
	assert.Contains(t, buf.String(), "pretty")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestBootstrap(t *testing.T) {
	var buf bytes.Buffer
	boot := logging.Bootstrap(&buf, "travelrecap-worker")

	boot.Error().Msg("failed to load configuration")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "travelrecap-worker", entry["service"])
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry, "time")
}
