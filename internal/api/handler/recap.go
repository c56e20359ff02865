package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/travelrecap/travelrecap/internal/api/response"
	"github.com/travelrecap/travelrecap/internal/recap"
	"github.com/travelrecap/travelrecap/internal/telemetry"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

// DefaultMaxUploadBytes bounds an uploaded export when none is configured.
const DefaultMaxUploadBytes int64 = 256 << 20

// RecapConfig configures the RecapHandler.
type RecapConfig struct {
	// Resolver maps coordinates to countries. It may resolve nothing.
	Resolver timeline.CountryResolver
	// DefaultThreshold applies when the request omits probabilityThreshold.
	DefaultThreshold float64
	MaxUploadBytes   int64
	Metrics          *telemetry.Pipeline
	Logger           zerolog.Logger
	Options          []recap.Option
}

// RecapHandler computes travel recaps from uploaded timeline exports.
type RecapHandler struct {
	cfg       RecapConfig
	processor *timeline.Processor
}

// NewRecapHandler creates a new RecapHandler.
func NewRecapHandler(cfg RecapConfig) *RecapHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Metrics != nil {
		cfg.Options = append(cfg.Options, recap.WithMetrics(cfg.Metrics))
	}
	return &RecapHandler{
		cfg:       cfg,
		processor: timeline.NewProcessor(cfg.Resolver),
	}
}

// CreateRecap parses an uploaded export and returns its all-time or
// per-year recap.
//
// @Summary Compute a travel recap
// @Description Parses a location-history export (a semanticSegments object or a root array of segments) and returns statistics, eco stats and the encoded travel path.
// @Tags recaps
// @Accept json
// @Produce json
// @Param probabilityThreshold query number false "Minimum visit probability in [0,1]"
// @Param year query int false "Limit the recap to one year"
// @Param export body object true "Timeline export"
// @Success 200 {object} recap.Report
// @Failure 400 {object} models.Problem
// @Failure 404 {object} models.Problem
// @Failure 413 {object} models.Problem
// @Failure 415 {object} models.Problem
// @Failure 422 {object} models.Problem
// @Router /v1/recaps [post]
func (h *RecapHandler) CreateRecap(w http.ResponseWriter, r *http.Request) {
	q, fieldErrs := parseRecapQuery(r, h.cfg.DefaultThreshold)
	if fieldErrs != nil {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, r, tooLarge.Limit)
			return
		}
		response.BadRequest(w, r, "failed to read request body", nil)
		return
	}

	result, err := h.processor.ProcessJSON(data, timeline.Options{ProbabilityThreshold: q.ProbabilityThreshold})
	if err != nil {
		response.MalformedJSON(w, r, err.Error())
		return
	}
	h.cfg.Metrics.RecordSegments(r.Context(), len(result.Segments), result.Skipped)

	if len(result.Segments) == 0 {
		keys := timeline.TopLevelKeys(data)
		h.cfg.Logger.Warn().
			Strs("keys", keys).
			Int("skipped", result.Skipped).
			Msg("export contained no timeline segments")
		response.UnprocessableEntity(w, r, emptyTimelineDetail(keys))
		return
	}

	report, err := recap.New(result, h.cfg.Resolver, h.cfg.Options...).Report(r.Context(), q.Year)
	if errors.Is(err, recap.ErrYearNotPresent) {
		response.NotFound(w, r, "year "+strconv.Itoa(*q.Year)+" not present in timeline")
		return
	}
	if err != nil {
		h.cfg.Logger.Error().Err(err).Msg("failed to build recap")
		response.InternalError(w, r, "failed to build recap")
		return
	}

	response.JSON(w, r, http.StatusOK, report)
}

func emptyTimelineDetail(keys []string) string {
	if len(keys) == 0 {
		return "no timeline segments found"
	}
	return "no timeline segments found; top-level keys: " + strings.Join(keys, ", ")
}
