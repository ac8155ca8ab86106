package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the API router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/detect", h.instrument("detect", h.DetectHandler)).Methods(http.MethodPost)
	api.HandleFunc("/analyze", h.instrument("analyze", h.AnalyzeHandler)).Methods(http.MethodPost)
	api.HandleFunc("/decisions", h.instrument("decisions", h.DecisionsHandler)).Methods(http.MethodGet, http.MethodDelete)
	api.HandleFunc("/anomalies", h.instrument("anomalies", h.AnomaliesHandler)).Methods(http.MethodGet, http.MethodDelete)

	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
