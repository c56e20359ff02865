package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelrecap/travelrecap/internal/importer"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

// Loader fetches a timeline export.
type Loader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

// Importer persists a timeline export.
type Importer interface {
	ImportJSON(ctx context.Context, data []byte, opts timeline.Options) (*importer.Summary, error)
}

// ImportJob imports timeline exports from several sources concurrently.
type ImportJob struct {
	config   ImportConfig
	logger   zerolog.Logger
	loader   Loader
	importer Importer

	metrics *ImportMetrics
}

// ImportMetrics tracks import job statistics.
type ImportMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulSources int64
	FailedSources     int64
	LocationsWritten  int64
	VisitsWritten     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// ImportJobConfig holds configuration for creating an ImportJob.
type ImportJobConfig struct {
	Config   ImportConfig
	Logger   zerolog.Logger
	Loader   Loader
	Importer Importer
}

// NewImportJob creates a new import job.
func NewImportJob(cfg ImportJobConfig) *ImportJob {
	return &ImportJob{
		config:   cfg.Config.withDefaults(),
		logger:   cfg.Logger,
		loader:   cfg.Loader,
		importer: cfg.Importer,
		metrics:  &ImportMetrics{},
	}
}

// ImportResult contains the result of one run.
type ImportResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalSources int
	Successful   int
	Failed       int
	Locations    int
	Visits       int
	Errors       []ImportError
}

// ImportError describes a source that failed.
type ImportError struct {
	Source string
	Stage  string
	Error  string
}

// Run imports every source. Sources are independent; one failing does not
// stop the others. A cancelled context leaves unstarted sources counted as
// failed.
func (j *ImportJob) Run(ctx context.Context, sources []string, threshold *float64) *ImportResult {
	startTime := time.Now()
	result := &ImportResult{
		StartTime:    startTime,
		TotalSources: len(sources),
	}

	opts := timeline.Options{ProbabilityThreshold: j.config.ProbabilityThreshold}
	if threshold != nil {
		opts.ProbabilityThreshold = *threshold
	}

	j.logger.Info().
		Int("total_sources", len(sources)).
		Int("concurrency", j.config.Concurrency).
		Float64("probability_threshold", opts.ProbabilityThreshold).
		Msg("starting timeline import job")

	sourcesChan := make(chan string, len(sources))
	resultsChan := make(chan sourceResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.importWorker(ctx, opts, sourcesChan, resultsChan)
		}()
	}

	for _, s := range sources {
		sourcesChan <- s
	}
	close(sourcesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	seen := 0
	for sr := range resultsChan {
		seen++
		if sr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, *sr.err)
			continue
		}
		result.Successful++
		result.Locations += sr.summary.Locations
		result.Visits += sr.summary.Visits
	}
	result.Failed += len(sources) - seen

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("locations", result.Locations).
		Int("visits", result.Visits).
		Msg("timeline import job completed")

	return result
}

type sourceResult struct {
	summary *importer.Summary
	err     *ImportError
}

func (j *ImportJob) importWorker(ctx context.Context, opts timeline.Options, sources <-chan string, results chan<- sourceResult) {
	for source := range sources {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.importSource(ctx, source, opts)
		}
	}
}

func (j *ImportJob) importSource(ctx context.Context, source string, opts timeline.Options) sourceResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	data, err := j.loader.Load(ctx, source)
	if err != nil {
		j.logger.Error().Err(err).Str("source", source).Msg("failed to load timeline")
		return sourceResult{err: &ImportError{Source: source, Stage: "load", Error: err.Error()}}
	}

	summary, err := j.importer.ImportJSON(ctx, data, opts)
	if err != nil {
		j.logger.Error().Err(err).Str("source", source).Msg("failed to import timeline")
		return sourceResult{err: &ImportError{Source: source, Stage: "import", Error: err.Error()}}
	}

	return sourceResult{summary: summary}
}

func (j *ImportJob) updateMetrics(result *ImportResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulSources += int64(result.Successful)
	j.metrics.FailedSources += int64(result.Failed)
	j.metrics.LocationsWritten += int64(result.Locations)
	j.metrics.VisitsWritten += int64(result.Visits)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// MetricsSnapshot returns the current metrics as a map.
func (j *ImportJob) MetricsSnapshot() map[string]any {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return map[string]any{
		"total_runs":         j.metrics.TotalRuns,
		"successful_sources": j.metrics.SuccessfulSources,
		"failed_sources":     j.metrics.FailedSources,
		"locations_written":  j.metrics.LocationsWritten,
		"visits_written":     j.metrics.VisitsWritten,
		"last_run_at":        j.metrics.LastRunAt,
		"last_run_duration":  j.metrics.LastRunDuration.String(),
	}
}

// Err summarizes a run as an error when any source failed.
func (r *ImportResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d sources failed", r.Failed, r.TotalSources)
}
