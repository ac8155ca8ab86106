// Package server exposes the validation engine over HTTP to the front
// end and other callers. All validation logic stays in the engine; the
// handlers only decode, dispatch and encode.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/agent"
	"github.com/Alias1177/OracleGuard/internal/api/historyfeed"
	"github.com/Alias1177/OracleGuard/internal/database"
	"github.com/Alias1177/OracleGuard/internal/detector"
	"github.com/Alias1177/OracleGuard/internal/metrics"
	"github.com/Alias1177/OracleGuard/internal/notify"
	"github.com/Alias1177/OracleGuard/models"
)

// feedFetchLimit caps how many records the fallback history lookup pulls.
const feedFetchLimit = 100

// Handler holds the dependencies for the HTTP handlers. Store, notifier
// and feed are optional.
type Handler struct {
	detector  *detector.Detector
	agent     *agent.Agent
	store     *database.DB
	notifier  *notify.Notifier
	feed      *historyfeed.Client
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates the API handler set.
func NewHandler(d *detector.Detector, a *agent.Agent, store *database.DB, notifier *notify.Notifier, feed *historyfeed.Client) *Handler {
	return &Handler{
		detector:  d,
		agent:     a,
		store:     store,
		notifier:  notifier,
		feed:      feed,
		logger:    log.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// loadHistory returns the request's history, falling back to the feed
// when the caller sent none. Feed failures degrade to an empty window.
func (h *Handler) loadHistory(r *http.Request, req validateRequest) []models.HistoricalRecord {
	if len(req.History) > 0 || h.feed == nil {
		return req.History
	}
	records, err := h.feed.GetRecords(r.Context(), req.Submission.DataType, feedFetchLimit)
	if err != nil {
		h.logger.Warn().Err(err).Int64("submission_id", req.Submission.ID).Msg("History feed lookup failed, proceeding without history")
		return nil
	}
	return records
}

// validateRequest is the body shape of the detect and analyze endpoints.
type validateRequest struct {
	Submission models.Submission         `json:"submission"`
	History    []models.HistoricalRecord `json:"history"`
}

// DetectHandler handles POST /api/v1/detect.
func (h *Handler) DetectHandler(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	report := h.detector.DetectAnomalies(req.Submission, h.loadHistory(r, req))
	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	metrics.ObserveReport(report)

	if h.store != nil {
		if err := h.store.SaveReport(report); err != nil {
			h.logger.Error().Err(err).Int64("submission_id", report.SubmissionID).Msg("Failed to persist anomaly report")
		}
	}
	if h.notifier != nil && report.HasAnomalies {
		if err := h.notifier.AnomalyAlert(report); err != nil {
			h.logger.Error().Err(err).Msg("Failed to deliver anomaly alert")
		}
	}

	h.respondJSON(w, http.StatusOK, report)
}

// AnalyzeHandler handles POST /api/v1/analyze.
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	decision := h.agent.AnalyzeSubmission(req.Submission, h.loadHistory(r, req))
	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	metrics.ObserveDecision(decision)

	if h.store != nil {
		if err := h.store.SaveDecision(decision); err != nil {
			h.logger.Error().Err(err).Int64("submission_id", decision.SubmissionID).Msg("Failed to persist decision")
		}
	}

	h.respondJSON(w, http.StatusOK, decision)
}

// DecisionsHandler handles GET and DELETE on /api/v1/decisions.
func (h *Handler) DecisionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respondJSON(w, http.StatusOK, map[string]any{"decisions": h.agent.Decisions()})
	case http.MethodDelete:
		h.agent.ClearDecisions()
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		h.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// AnomaliesHandler handles GET and DELETE on /api/v1/anomalies.
func (h *Handler) AnomaliesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respondJSON(w, http.StatusOK, map[string]any{"reports": h.detector.Reports()})
	case http.MethodDelete:
		h.detector.ClearReports()
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		h.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HealthHandler handles GET /healthz.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// instrument wraps a handler with request metrics and logging.
func (h *Handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
		defer timer.ObserveDuration()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)

		metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, strconv.Itoa(recorder.status)).Inc()
		h.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", r.Method).
			Int("status", recorder.status).
			Msg("Request handled")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
