package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/api"
	"github.com/travelrecap/travelrecap/internal/api/models"
	"github.com/travelrecap/travelrecap/internal/geo"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/recap"
)

const squareCountry = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"name": "Squareland"},
    "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
  }]
}`

const export = `{
  "semanticSegments": [
    {
      "startTime": "2024-05-01T08:00:00Z",
      "endTime": "2024-05-01T18:00:00Z",
      "visit": {"probability": 0.9, "topCandidate": {"placeId": "p1", "placeLocation": {"latLng": "5.0°, 5.0°"}}}
    }
  ]
}`

func newTestRouter(t *testing.T, cfg api.RouterConfig) http.Handler {
	t.Helper()

	repo := place.NewInMemoryRepository()
	id := "p1"
	_, err := repo.UpsertLocations(context.Background(), []*place.Location{{PlaceID: id, Lat: 5, Lng: 5}})
	require.NoError(t, err)
	_, err = repo.InsertVisits(context.Background(), []*place.Visit{
		{PlaceID: &id, StartTime: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	service := place.NewService(repo)

	features, err := geo.DecodeFeatureCollection([]byte(squareCountry))
	require.NoError(t, err)
	lookup := geo.NewCountryLookup(features)

	cfg.Version = "1.0.0"
	cfg.BuildTime = "2024-01-01T00:00:00Z"
	cfg.Logger = zerolog.Nop()
	cfg.Places = service
	cfg.Store = service
	cfg.Resolver = lookup
	cfg.BoundarySize = lookup.Len
	return api.NewRouter(cfg)
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Ops(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	for _, path := range []string{"/v1/ops/health", "/v1/ops/ready", "/v1/ops/status"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"), path)
	}
}

func TestRouter_PlaceLocations_BothPaths(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	for _, path := range []string{"/api/place-locations?year=2024", "/v1/place-locations?year=2024"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var locations []place.Location
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &locations))
		require.Len(t, locations, 1)
		assert.Equal(t, "p1", locations[0].PlaceID)
	}

	rec := do(t, router, http.MethodGet, "/api/place-locations?year=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_Recap_ResolvesCountries(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	rec := do(t, router, http.MethodPost, "/v1/recaps", export, map[string]string{"Content-Type": "application/json"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report recap.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, []int{2024}, report.Years)
	assert.Equal(t, []string{"Squareland"}, report.Summary.Stats.Countries)
}

func TestRouter_Recap_RejectsNonJSON(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	rec := do(t, router, http.MethodPost, "/v1/recaps", export, map[string]string{"Content-Type": "text/csv"})

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_Recap_UploadLimit(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{MaxUploadBytes: 32})

	rec := do(t, router, http.MethodPost, "/v1/recaps", export, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{CORSOrigins: []string{"https://recap.example"}})

	rec := do(t, router, http.MethodOptions, "/v1/recaps", "", map[string]string{
		"Origin":                        "https://recap.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://recap.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	rec = do(t, router, http.MethodGet, "/v1/ops/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequireTLS(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{RequireTLS: true})

	rec := do(t, router, http.MethodGet, "/v1/ops/health", "", map[string]string{"X-Forwarded-Proto": "http"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.ProblemTypeTLSRequired, p.Type)
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{RateLimit: 2})

	headers := map[string]string{"X-Forwarded-For": "198.51.100.7"}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/v1/place-locations", "", headers).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodGet, "/v1/place-locations", "", headers).Code)

	// Health checks are not rate limited.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/v1/ops/health", "", headers).Code)
}

func TestRouter_Swagger(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	rec := do(t, router, http.MethodGet, "/swagger/doc.json", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/recaps")

	var doc struct {
		Paths map[string]map[string]struct {
			Description string `json:"description"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	description := doc.Paths["/v1/recaps"]["post"].Description
	assert.Contains(t, description, "semanticSegments")
	assert.Contains(t, description, "root array")
	assert.NotContains(t, description, "rawSignals", "only decoded export shapes are advertised")
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, api.RouterConfig{})

	rec := do(t, router, http.MethodGet, "/v1/unknown", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
