// Package metrics exports operational metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alias1177/OracleGuard/models"
)

var (
	// RequestsTotal counts API requests by endpoint, method and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracleguard_requests_total",
			Help: "Total number of API requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration observes API request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracleguard_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// SubmissionsAnalyzed counts analyzed submissions by verdict.
	SubmissionsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracleguard_submissions_analyzed_total",
			Help: "Total number of submissions analyzed, labeled by verdict",
		},
		[]string{"result"},
	)

	// AnomaliesDetected counts flagged anomalies by kind and severity.
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracleguard_anomalies_detected_total",
			Help: "Total number of anomalies detected, labeled by kind and severity",
		},
		[]string{"kind", "severity"},
	)

	// InsufficientData counts submissions that could not be compared
	// against history.
	InsufficientData = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oracleguard_insufficient_data_total",
			Help: "Total number of submissions with too little history for detection",
		},
	)

	// AnalysisLatency observes engine computation time.
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracleguard_analysis_duration_seconds",
			Help:    "Engine analysis latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05},
		},
	)
)

// ObserveDecision updates verdict counters for a completed decision.
func ObserveDecision(decision models.Decision) {
	SubmissionsAnalyzed.WithLabelValues(string(decision.Result)).Inc()
}

// ObserveReport updates anomaly counters for a completed report.
func ObserveReport(report models.AnomalyReport) {
	if report.InsufficientData {
		InsufficientData.Inc()
	}
	for _, a := range report.Anomalies {
		AnomaliesDetected.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	}
}
