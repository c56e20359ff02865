// Package fetch loads exports and boundary documents from local paths or
// remote URLs, retrying transient failures behind a circuit breaker.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/travelrecap/travelrecap/internal/telemetry"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooLarge is returned when a body exceeds the configured limit.
	ErrTooLarge = errors.New("response body too large")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Name            string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxBodyBytes    int64
	Breaker         BreakerConfig
	// Metrics records fetch durations when set.
	Metrics *telemetry.Pipeline
}

// DefaultClientConfig returns settings suited to downloading large exports.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         60 * time.Second,
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxBodyBytes:    512 << 20,
		Breaker:         DefaultBreakerConfig(),
	}
}

// Health is a snapshot of a client's breaker and recent outcomes.
type Health struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Client downloads documents over HTTP.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	cfg     ClientConfig

	mu            sync.RWMutex
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewClient creates a Client. Zero timeouts and intervals take defaults.
func NewClient(cfg ClientConfig) *Client {
	defaults := DefaultClientConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(cfg.Name, cfg.Breaker),
		cfg:     cfg,
	}
}

// Get downloads url, retrying network errors, 5xx and 429 responses with
// exponential backoff.
func (c *Client) Get(ctx context.Context, url string) (body []byte, err error) {
	start := time.Now()
	defer func() { c.cfg.Metrics.RecordFetch(c.cfg.Name, time.Since(start), err) }()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	operation := func() error {
		data, err := c.breaker.Execute(func() ([]byte, error) {
			return c.get(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Retryable() {
				return backoff.Permanent(err)
			}
			if errors.Is(err, ErrTooLarge) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)
	if err = backoff.Retry(operation, policy); err != nil {
		c.recordFailure(err)
		return nil, err
	}

	c.recordSuccess()
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > c.cfg.MaxBodyBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (c *Client) recordSuccess() {
	now := time.Now()
	c.mu.Lock()
	c.lastSuccessAt = &now
	c.mu.Unlock()
}

func (c *Client) recordFailure(err error) {
	now := time.Now()
	c.mu.Lock()
	c.lastFailureAt = &now
	c.lastError = err.Error()
	c.mu.Unlock()
}

// Health returns the current breaker state and last outcomes.
func (c *Client) Health() Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Health{
		Name:          c.cfg.Name,
		State:         c.breaker.State(),
		Counts:        c.breaker.Counts(),
		LastSuccessAt: c.lastSuccessAt,
		LastFailureAt: c.lastFailureAt,
		LastError:     c.lastError,
	}
}
