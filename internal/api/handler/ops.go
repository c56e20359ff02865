// Package handler provides HTTP handlers for the travel recap API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/travelrecap/travelrecap/internal/api/models"
	"github.com/travelrecap/travelrecap/internal/api/response"
	"github.com/travelrecap/travelrecap/internal/fetch"
)

// ReadinessChecker reports whether a backing store is reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// FetcherHealth exposes the health snapshot of a remote fetch client.
type FetcherHealth interface {
	Health() fetch.Health
}

// OpsConfig configures the OpsHandler. Store may be nil when the API runs
// without a database.
type OpsConfig struct {
	Version      string
	BuildTime    string
	Store        ReadinessChecker
	Fetchers     []FetcherHealth
	BoundarySize func() int
	ReadyTimeout time.Duration
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck is the liveness check.
//
// @Summary Liveness check
// @Tags ops
// @Produce json
// @Success 200 {object} models.Health
// @Router /v1/ops/health [get]
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck is the readiness check. It pings the database when one is
// configured.
//
// @Summary Readiness check
// @Tags ops
// @Produce json
// @Success 200 {object} models.Health
// @Failure 503 {object} models.Problem
// @Router /v1/ops/ready [get]
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingStore(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "database unreachable: "+err.Error())
		return
	}

	details := map[string]any{"database": "ok"}
	if h.cfg.Store == nil {
		details["database"] = "not configured"
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	})
}

// SystemStatus reports subsystem and fetcher status. The overall status is
// the worst of its parts.
//
// @Summary Subsystem and fetcher status
// @Tags ops
// @Produce json
// @Success 200 {object} models.SystemStatus
// @Router /v1/ops/status [get]
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.databaseStatus(r.Context()), h.boundaryStatus()},
		Fetchers:   make([]models.FetcherStatus, 0, len(h.cfg.Fetchers)),
	}

	for _, f := range h.cfg.Fetchers {
		status.Fetchers = append(status.Fetchers, fetcherStatus(f.Health()))
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, f := range status.Fetchers {
		status.Status = worst(status.Status, f.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) pingStore(ctx context.Context) error {
	if h.cfg.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, h.cfg.ReadyTimeout)
	defer cancel()
	return h.cfg.Store.Ready(ctx)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
	switch err := h.pingStore(ctx); {
	case h.cfg.Store == nil:
		s.Status = models.HealthStatusDegraded
		s.Detail = strPtr("not configured, serving from memory")
	case err != nil:
		s.Status = models.HealthStatusFail
		s.Detail = strPtr(err.Error())
	}
	return s
}

func (h *OpsHandler) boundaryStatus() models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "country-boundaries", Status: models.HealthStatusOK}
	n := 0
	if h.cfg.BoundarySize != nil {
		n = h.cfg.BoundarySize()
	}
	if n == 0 {
		s.Status = models.HealthStatusDegraded
		s.Detail = strPtr("no boundaries loaded, countries unresolved")
	} else {
		s.Detail = strPtr(strconv.Itoa(n) + " features")
	}
	return s
}

func fetcherStatus(h fetch.Health) models.FetcherStatus {
	fs := models.FetcherStatus{
		Name:    h.Name,
		Status:  models.HealthStatusOK,
		Circuit: h.State.String(),
	}
	switch h.State {
	case gobreaker.StateOpen:
		fs.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		fs.Status = models.HealthStatusDegraded
	}
	if h.LastSuccessAt != nil {
		fs.LastSuccessAt = models.TimestampPtr(*h.LastSuccessAt)
	}
	if h.LastFailureAt != nil {
		fs.LastFailureAt = models.TimestampPtr(*h.LastFailureAt)
	}
	if h.LastError != "" {
		fs.Message = strPtr(h.LastError)
	}
	return fs
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

func strPtr(s string) *string { return &s }
