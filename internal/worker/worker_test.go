package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/importer"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/timeline"
	"github.com/travelrecap/travelrecap/internal/worker"
)

const export = `[
  {"startTime": "2024-05-01T10:00:00Z", "visit": {"probability": 0.9, "topCandidate": {"placeID": "a", "placeLocation": "geo:1,1"}}},
  {"startTime": "2024-05-02T10:00:00Z", "visit": {"probability": 0.2, "topCandidate": {"placeID": "b", "placeLocation": "geo:2,2"}}}
]`

var errMissing = errors.New("no such source")

type mapLoader map[string]string

func (m mapLoader) Load(_ context.Context, location string) ([]byte, error) {
	data, ok := m[location]
	if !ok {
		return nil, errMissing
	}
	return []byte(data), nil
}

type recordingImporter struct {
	mu         sync.Mutex
	thresholds []float64
	delegate   worker.Importer
}

func (r *recordingImporter) ImportJSON(ctx context.Context, data []byte, opts timeline.Options) (*importer.Summary, error) {
	r.mu.Lock()
	r.thresholds = append(r.thresholds, opts.ProbabilityThreshold)
	r.mu.Unlock()
	return r.delegate.ImportJSON(ctx, data, opts)
}

type storedVisits struct {
	*place.InMemoryRepository
	mu     sync.Mutex
	visits int
}

func (r *storedVisits) InsertVisits(ctx context.Context, visits []*place.Visit) (int, error) {
	n, err := r.InMemoryRepository.InsertVisits(ctx, visits)
	r.mu.Lock()
	r.visits += n
	r.mu.Unlock()
	return n, err
}

func (r *storedVisits) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visits
}

func newJob(t *testing.T, cfg worker.ImportConfig) (*worker.ImportJob, *storedVisits, *recordingImporter) {
	t.Helper()
	repo := &storedVisits{InMemoryRepository: place.NewInMemoryRepository()}
	imp := &recordingImporter{delegate: importer.New(importer.Config{Repository: repo, Logger: zerolog.Nop()})}
	job := worker.NewImportJob(worker.ImportJobConfig{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Loader:   mapLoader{"one.json": export, "two.json": export, "bad.json": `{`},
		Importer: imp,
	})
	return job, repo, imp
}

func TestDefaultImportConfig(t *testing.T) {
	cfg := worker.DefaultImportConfig()
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Zero(t, cfg.ProbabilityThreshold)
}

func TestImportJob_Run(t *testing.T) {
	job, repo, _ := newJob(t, worker.ImportConfig{Concurrency: 2})

	result := job.Run(context.Background(), []string{"one.json", "two.json"}, nil)

	assert.Equal(t, 2, result.TotalSources)
	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 4, result.Visits)
	assert.Equal(t, 4, repo.count())
	assert.NoError(t, result.Err())
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestImportJob_Run_ThresholdOverride(t *testing.T) {
	job, repo, imp := newJob(t, worker.ImportConfig{ProbabilityThreshold: 0.1})

	threshold := 0.5
	result := job.Run(context.Background(), []string{"one.json"}, &threshold)
	require.NoError(t, result.Err())
	assert.Equal(t, []float64{0.5}, imp.thresholds)
	assert.Equal(t, 1, repo.count())

	job.Run(context.Background(), []string{"one.json"}, nil)
	assert.Equal(t, []float64{0.5, 0.1}, imp.thresholds)
}

func TestImportJob_Run_ErrorCollection(t *testing.T) {
	job, _, _ := newJob(t, worker.ImportConfig{Concurrency: 1})

	result := job.Run(context.Background(), []string{"one.json", "missing.json", "bad.json"}, nil)

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Error(t, result.Err())

	stages := map[string]string{}
	for _, e := range result.Errors {
		stages[e.Source] = e.Stage
	}
	assert.Equal(t, "load", stages["missing.json"])
	assert.Equal(t, "import", stages["bad.json"])
}

func TestImportJob_Run_ContextCancellation(t *testing.T) {
	job, _, _ := newJob(t, worker.ImportConfig{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx, []string{"one.json", "two.json"}, nil)
	assert.Equal(t, 2, result.Successful+result.Failed)
}

func TestImportJob_MetricsSnapshot(t *testing.T) {
	job, _, _ := newJob(t, worker.ImportConfig{})
	job.Run(context.Background(), []string{"one.json", "missing.json"}, nil)

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["total_runs"])
	assert.Equal(t, int64(1), snapshot["successful_sources"])
	assert.Equal(t, int64(1), snapshot["failed_sources"])
	assert.Equal(t, int64(2), snapshot["visits_written"])
}

func TestJobMessage_AllSources(t *testing.T) {
	msg := worker.JobMessage{Source: "a", Sources: []string{"", "b"}}
	assert.Equal(t, []string{"a", "b"}, msg.AllSources())
	assert.Empty(t, worker.JobMessage{}.AllSources())
}

func TestJobMessage_Validate(t *testing.T) {
	threshold := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		msg     worker.JobMessage
		wantErr error
	}{
		{"valid", worker.JobMessage{Source: "a.json", ProbabilityThreshold: threshold(0.5)}, nil},
		{"bounds inclusive", worker.JobMessage{Source: "a.json", ProbabilityThreshold: threshold(1)}, nil},
		{"no threshold", worker.JobMessage{Sources: []string{"a.json"}}, nil},
		{"no source", worker.JobMessage{}, worker.ErrNoSources},
		{"above one", worker.JobMessage{Source: "a.json", ProbabilityThreshold: threshold(5)}, worker.ErrInvalidThreshold},
		{"negative", worker.JobMessage{Source: "a.json", ProbabilityThreshold: threshold(-0.1)}, worker.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	job, _, _ := newJob(t, worker.ImportConfig{})
	healthErr := errors.New("db down")

	tests := []struct {
		name   string
		health worker.HealthCheck
		data   string
		want   worker.Outcome
	}{
		{"import", nil, `{"job_type":"timeline_import","source":"one.json","probability_threshold":0.5}`, worker.Ack},
		{"import many", nil, `{"job_type":"timeline_import","sources":["one.json","two.json"]}`, worker.Ack},
		{"import failure", nil, `{"job_type":"timeline_import","source":"missing.json"}`, worker.Nack},
		{"import without source", nil, `{"job_type":"timeline_import"}`, worker.Nack},
		{"threshold above one", nil, `{"job_type":"timeline_import","source":"one.json","probability_threshold":5}`, worker.Nack},
		{"negative threshold", nil, `{"job_type":"timeline_import","source":"one.json","probability_threshold":-0.1}`, worker.Nack},
		{"health ok", func(context.Context) error { return nil }, `{"job_type":"health_check"}`, worker.Ack},
		{"health without check", nil, `{"job_type":"health_check"}`, worker.Ack},
		{"health failing", func(context.Context) error { return healthErr }, `{"job_type":"health_check"}`, worker.Nack},
		{"unknown job", nil, `{"job_type":"provider_refresh"}`, worker.Ack},
		{"malformed", nil, `{"job_type":`, worker.Nack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := worker.NewDispatcher(job, tt.health, zerolog.Nop())
			got := d.Dispatch(context.Background(), []byte(tt.data))
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestOutcome_AfterAttempts(t *testing.T) {
	attempt := func(n int) *int { return &n }

	tests := []struct {
		name    string
		outcome worker.Outcome
		attempt *int
		max     int
		want    worker.Outcome
	}{
		{"ack stays ack", worker.Ack, attempt(9), 5, worker.Ack},
		{"nack below limit", worker.Nack, attempt(4), 5, worker.Nack},
		{"nack at limit", worker.Nack, attempt(5), 5, worker.Ack},
		{"no attempt reported", worker.Nack, nil, 5, worker.Nack},
		{"limit disabled", worker.Nack, attempt(50), 0, worker.Nack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.AfterAttempts(tt.attempt, tt.max))
		})
	}
}
