package models

// Data types the engine validates deeply. Any other declared type is
// carried through as an Unknown payload.
const (
	DataTypeAssetPrices   = "ASSET_PRICES"
	DataTypeMarketMetrics = "MARKET_METRICS"
)

// Submission is a single externally supplied data point awaiting validation.
// The engine never mutates it.
type Submission struct {
	ID         int64   `json:"id"`
	DataType   string  `json:"dataType"`
	DataValue  any     `json:"dataValue"` // JSON string/bytes, decoded structure, or an already-normalized Payload
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"` // unix ms
	Submitter  string  `json:"submitter,omitempty"`
}

// HistoricalRecord is one prior data point from the window backing the oracle.
// A zero Timestamp falls back to the timestamp inside Data.
type HistoricalRecord struct {
	Data      any   `json:"data"`
	Timestamp int64 `json:"timestamp,omitempty"`
}

// AnomalyKind identifies the rule that flagged a deviation.
type AnomalyKind string

const (
	AnomalySuddenPriceChange     AnomalyKind = "SUDDEN_PRICE_CHANGE"
	AnomalyStatisticalOutlier    AnomalyKind = "STATISTICAL_OUTLIER"
	AnomalyInconsistentData      AnomalyKind = "INCONSISTENT_DATA"
	AnomalySuddenMarketCapChange AnomalyKind = "SUDDEN_MARKET_CAP_CHANGE"
)

// Severity grades how far an anomaly's metric exceeds its threshold.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Anomaly is a flagged deviation between current and historical/expected values.
type Anomaly struct {
	Kind           AnomalyKind `json:"kind"`
	Subject        string      `json:"subject"` // asset symbol or metric name
	CurrentValue   float64     `json:"currentValue"`
	ReferenceValue float64     `json:"referenceValue"` // previous price, series mean, or previous cap
	MetricValue    float64     `json:"metricValue"`    // percent change or |z-score|
	Threshold      float64     `json:"threshold"`
	Severity       Severity    `json:"severity"`
	Message        string      `json:"message,omitempty"`
}

// AnomalyReport is the result of anomaly detection for one submission.
type AnomalyReport struct {
	SubmissionID     int64     `json:"submissionId"`
	HasAnomalies     bool      `json:"hasAnomalies"`
	Anomalies        []Anomaly `json:"anomalies"`
	GeneratedAt      int64     `json:"generatedAt"` // unix ms
	InsufficientData bool      `json:"insufficientData,omitempty"`
	Note             string    `json:"note,omitempty"`
}

// Verdict is the final decision result for a submission.
type Verdict string

const (
	VerdictValid     Verdict = "VALID"
	VerdictInvalid   Verdict = "INVALID"
	VerdictUncertain Verdict = "UNCERTAIN"
	VerdictError     Verdict = "ERROR"
)

// FindingKind classifies a reasoning step for confidence scoring.
// NEGATIVE and UNCERTAIN findings count against confidence; NEUTRAL and
// POSITIVE do not.
type FindingKind string

const (
	FindingPositive  FindingKind = "POSITIVE"
	FindingNeutral   FindingKind = "NEUTRAL"
	FindingNegative  FindingKind = "NEGATIVE"
	FindingUncertain FindingKind = "UNCERTAIN"
)

// ReasoningStep is one atomic finding produced during decision analysis.
type ReasoningStep struct {
	Kind    FindingKind `json:"kind"`
	Message string      `json:"message"`
}

// Penalized reports whether the step counts against the confidence score.
func (s ReasoningStep) Penalized() bool {
	return s.Kind == FindingNegative || s.Kind == FindingUncertain
}

// Decision is the graded verdict for a submission with its reasoning chain.
type Decision struct {
	SubmissionID int64           `json:"submissionId"`
	Result       Verdict         `json:"result"`
	Confidence   float64         `json:"confidence"` // always in [0,1]
	Reasoning    []ReasoningStep `json:"reasoning"`
	ErrorDetail  string          `json:"errorDetail,omitempty"`
	Timestamp    int64           `json:"timestamp"` // unix ms
}
