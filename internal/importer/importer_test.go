package importer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/importer"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

type stubResolver struct{}

func (stubResolver) Country(lat, _ float64) (string, bool) {
	if lat > 50 {
		return "Netherlands", true
	}
	return "", false
}

const export = `[
  {"startTime": "2024-05-01T10:00:00Z", "endTime": "2024-05-01T12:00:00Z",
   "visit": {"probability": "0.9", "topCandidate": {"placeID": "museum", "placeLocation": "geo:52.36,4.88"}}},
  {"startTime": "2024-05-02T10:00:00Z",
   "visit": {"probability": "0.9", "topCandidate": {"placeID": "museum", "placeLocation": "geo:52.3601,4.8801"}}},
  {"startTime": "2024-05-03T10:00:00Z",
   "visit": {"probability": "0.9", "topCandidate": {"placeID": "beach", "placeLocation": "geo:-8.65,115.13"}}},
  {"startTime": "2024-05-04T10:00:00Z",
   "visit": {"probability": "0.9", "topCandidate": {"placeLocation": "geo:1,1"}}},
  {"startTime": "2024-05-05T10:00:00Z",
   "visit": {"probability": "0.1", "topCandidate": {"placeID": "unsure", "placeLocation": "geo:1,1"}}},
  {"visit": {"topCandidate": {"placeID": "timeless", "placeLocation": "geo:1,1"}}},
  {"startTime": "2024-05-06T10:00:00Z", "endTime": "2024-05-06T11:00:00Z",
   "activity": {"distanceMeters": 500, "topCandidate": {"type": "WALKING"}}}
]`

func TestImporter_ImportJSON(t *testing.T) {
	repo := &countingRepository{InMemoryRepository: place.NewInMemoryRepository()}
	imp := importer.New(importer.Config{
		Repository: repo,
		Resolver:   stubResolver{},
		Logger:     zerolog.Nop(),
	})

	summary, err := imp.ImportJSON(context.Background(), []byte(export), timeline.Options{ProbabilityThreshold: 0.5})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, 6, summary.Segments)
	assert.Equal(t, 2, summary.Locations, "duplicate place ids collapse")
	assert.Equal(t, 4, summary.Visits)
	assert.Equal(t, 1, summary.Skipped, "visit without start time")
	assert.Equal(t, 4, repo.visits)

	locations, err := repo.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 2)

	beach, museum := locations[0], locations[1]
	assert.Equal(t, "beach", beach.PlaceID)
	assert.Nil(t, beach.Country)
	assert.Nil(t, beach.City)

	assert.Equal(t, "museum", museum.PlaceID)
	require.NotNil(t, museum.Country)
	assert.Equal(t, "Netherlands", *museum.Country)
	assert.InDelta(t, 52.3601, museum.Lat, 1e-9, "last occurrence wins")
}

func TestImporter_YearQueryAfterImport(t *testing.T) {
	repo := place.NewInMemoryRepository()
	imp := importer.New(importer.Config{Repository: repo, Logger: zerolog.Nop()})

	_, err := imp.ImportJSON(context.Background(), []byte(export), timeline.Options{})
	require.NoError(t, err)

	locations, err := place.NewService(repo).ListLocations(context.Background(), intPtr(2024))
	require.NoError(t, err)
	ids := make([]string, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.PlaceID)
	}
	assert.Equal(t, []string{"beach", "museum", "unsure"}, ids)
}

func TestImporter_Batches(t *testing.T) {
	repo := &countingRepository{InMemoryRepository: place.NewInMemoryRepository()}
	imp := importer.New(importer.Config{Repository: repo, Logger: zerolog.Nop(), BatchSize: 2})

	summary, err := imp.ImportJSON(context.Background(), []byte(export), timeline.Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Visits)
	assert.Equal(t, 3, repo.visitBatches)
	assert.Equal(t, 2, repo.locationBatches)
}

func TestImporter_RepositoryError(t *testing.T) {
	repo := &countingRepository{InMemoryRepository: place.NewInMemoryRepository(), fail: true}
	imp := importer.New(importer.Config{Repository: repo, Logger: zerolog.Nop()})

	_, err := imp.ImportJSON(context.Background(), []byte(export), timeline.Options{})
	assert.ErrorIs(t, err, errWrite)
}

func TestImporter_MalformedJSON(t *testing.T) {
	imp := importer.New(importer.Config{Repository: place.NewInMemoryRepository(), Logger: zerolog.Nop()})
	_, err := imp.ImportJSON(context.Background(), []byte(`{"semanticSegments": [`), timeline.Options{})
	assert.ErrorIs(t, err, timeline.ErrMalformedJSON)
}

var errWrite = errors.New("write failed")

type countingRepository struct {
	*place.InMemoryRepository
	fail            bool
	locationBatches int
	visitBatches    int
	visits          int
}

func (r *countingRepository) UpsertLocations(ctx context.Context, locations []*place.Location) (int, error) {
	if r.fail {
		return 0, errWrite
	}
	r.locationBatches++
	return r.InMemoryRepository.UpsertLocations(ctx, locations)
}

func (r *countingRepository) InsertVisits(ctx context.Context, visits []*place.Visit) (int, error) {
	r.visitBatches++
	n, err := r.InMemoryRepository.InsertVisits(ctx, visits)
	r.visits += n
	return n, err
}

func intPtr(v int) *int { return &v }
