package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Job types carried in the job_type field.
const (
	JobTypeTimelineImport = "timeline_import"
	JobTypeHealthCheck    = "health_check"
)

var (
	// ErrNoSources is returned for an import message without a source.
	ErrNoSources = errors.New("import message has no source")

	// ErrInvalidThreshold is returned when probability_threshold is outside [0,1].
	ErrInvalidThreshold = errors.New("probability_threshold must be between 0 and 1")
)

// JobMessage is the payload of a worker Pub/Sub message.
type JobMessage struct {
	JobType              string   `json:"job_type"`
	Source               string   `json:"source,omitempty"`
	Sources              []string `json:"sources,omitempty"`
	ProbabilityThreshold *float64 `json:"probability_threshold,omitempty"`
}

// AllSources returns Source followed by Sources, skipping empty entries.
func (m JobMessage) AllSources() []string {
	var out []string
	if m.Source != "" {
		out = append(out, m.Source)
	}
	for _, s := range m.Sources {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks an import message before any source is fetched.
func (m JobMessage) Validate() error {
	if len(m.AllSources()) == 0 {
		return ErrNoSources
	}
	if t := m.ProbabilityThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, *t)
	}
	return nil
}

// Outcome tells the transport what to do with a message.
type Outcome int

const (
	// Ack removes the message.
	Ack Outcome = iota
	// Nack schedules redelivery.
	Nack
)

func (o Outcome) String() string {
	if o == Nack {
		return "nack"
	}
	return "ack"
}

// AfterAttempts turns a Nack into an Ack once attempt reaches maxAttempts,
// so a message that always fails stops cycling. A nil attempt or a
// non-positive maxAttempts leaves o unchanged.
func (o Outcome) AfterAttempts(attempt *int, maxAttempts int) Outcome {
	if o == Nack && attempt != nil && maxAttempts > 0 && *attempt >= maxAttempts {
		return Ack
	}
	return o
}

// HealthCheck verifies the worker dependencies.
type HealthCheck func(ctx context.Context) error

// Dispatcher decodes job messages and runs them.
type Dispatcher struct {
	job    *ImportJob
	health HealthCheck
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher. health may be nil.
func NewDispatcher(job *ImportJob, health HealthCheck, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, health: health, logger: logger}
}

// Dispatch runs the job in data. Malformed payloads and failed jobs are
// nacked; unknown job types are acked so they are not redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) Outcome {
	startTime := time.Now()

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		d.logger.Error().Err(err).Msg("failed to parse message")
		return Nack
	}

	var err error
	switch msg.JobType {
	case JobTypeTimelineImport:
		err = d.handleImport(ctx, msg)
	case JobTypeHealthCheck:
		err = d.handleHealthCheck(ctx)
	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return Ack
	}

	if err != nil {
		d.logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return Nack
	}

	d.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return Ack
}

func (d *Dispatcher) handleImport(ctx context.Context, msg JobMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return d.job.Run(ctx, msg.AllSources(), msg.ProbabilityThreshold).Err()
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	if d.health == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := d.health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	d.logger.Debug().Msg("health check passed")
	return nil
}
