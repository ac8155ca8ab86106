// Package detector applies per-type anomaly rules to oracle data
// submissions: sudden-change thresholds, statistical outliers and
// cross-field consistency.
package detector

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/history"
	"github.com/Alias1177/OracleGuard/internal/payload"
	"github.com/Alias1177/OracleGuard/internal/stats"
	"github.com/Alias1177/OracleGuard/models"
)

// minStatPoints is how many filtered points the statistical-outlier rule
// needs, independent of the configured MinDataPoints.
const minStatPoints = 5

// Detector runs anomaly detection over submissions and keeps an
// append-only log of reports that contained anomalies.
type Detector struct {
	cfg    models.Config
	logger zerolog.Logger

	mu      sync.Mutex
	reports []models.AnomalyReport
}

// New validates the configuration and creates a detector.
func New(cfg models.Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	return &Detector{
		cfg:    cfg,
		logger: log.With().Str("component", "anomaly_detector").Logger(),
	}, nil
}

// DetectAnomalies analyzes a submission against its historical window.
// It never fails: parse problems surface as a report with a note, and an
// undersized window is a terminal insufficient-data outcome.
func (d *Detector) DetectAnomalies(sub models.Submission, records []models.HistoricalRecord) models.AnomalyReport {
	now := time.Now()
	report := models.AnomalyReport{
		SubmissionID: sub.ID,
		Anomalies:    []models.Anomaly{},
		GeneratedAt:  now.UnixMilli(),
	}

	d.logger.Debug().Int64("submission_id", sub.ID).Str("data_type", sub.DataType).Msg("Analyzing submission")

	pl, err := payload.Normalize(sub.DataValue)
	if err != nil {
		d.logger.Error().Err(err).Int64("submission_id", sub.ID).Msg("Could not decode submission data")
		report.Note = "could not decode submission data: " + err.Error()
		return report
	}

	relevant := history.Filter(pl, records, d.cfg.MaxDataAge, now)
	if len(relevant) < d.cfg.MinDataPoints {
		report.InsufficientData = true
		report.Note = fmt.Sprintf("insufficient historical data (%d/%d points required)", len(relevant), d.cfg.MinDataPoints)
		return report
	}

	var anomalies []models.Anomaly
	switch p := pl.(type) {
	case models.AssetPrices:
		anomalies = d.assetPriceAnomalies(p, relevant)
	case models.MarketMetrics:
		anomalies = d.marketMetricAnomalies(p, relevant)
	case models.Unknown:
		// No anomaly rules for unsupported types.
	}

	if len(anomalies) > 0 {
		report.HasAnomalies = true
		report.Anomalies = anomalies

		d.mu.Lock()
		d.reports = append(d.reports, report)
		d.mu.Unlock()

		d.logger.Warn().
			Int64("submission_id", sub.ID).
			Int("count", len(anomalies)).
			Msg("Anomalies detected")
	}
	return report
}

// assetPriceAnomalies checks every asset present in both the submission
// and the most recent historical point. First-seen assets are skipped:
// they cannot be anomalous by definition.
func (d *Detector) assetPriceAnomalies(p models.AssetPrices, hist []history.Point) []models.Anomaly {
	prev, ok := hist[0].Payload.(models.AssetPrices)
	if !ok {
		return nil
	}

	assets := make([]string, 0, len(p.Predictions))
	for asset := range p.Predictions {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var anomalies []models.Anomaly
	for _, asset := range assets {
		current := p.Predictions[asset]
		previous, ok := prev.Predictions[asset]
		if !ok {
			continue
		}

		change := PercentChange(current.Price, previous.Price)
		threshold := d.cfg.AssetThreshold(asset)
		if change > threshold {
			anomalies = append(anomalies, models.Anomaly{
				Kind:           models.AnomalySuddenPriceChange,
				Subject:        asset,
				CurrentValue:   current.Price,
				ReferenceValue: previous.Price,
				MetricValue:    change,
				Threshold:      threshold,
				Severity:       gradeSeverity(change, threshold),
			})
		}

		if len(hist) >= minStatPoints {
			if a, ok := d.outlierCheck(asset, current.Price, hist); ok {
				anomalies = append(anomalies, a)
			}
		}
	}
	return anomalies
}

// outlierCheck builds the asset's price series across the filtered window
// and flags the current price when its |z-score| exceeds the configured
// threshold. Per-asset overrides deliberately do not apply here.
func (d *Detector) outlierCheck(asset string, price float64, hist []history.Point) (models.Anomaly, bool) {
	series := make([]float64, 0, len(hist))
	for _, pt := range hist {
		pp, ok := pt.Payload.(models.AssetPrices)
		if !ok {
			continue
		}
		if quote, ok := pp.Predictions[asset]; ok {
			series = append(series, quote.Price)
		}
	}
	if len(series) == 0 {
		return models.Anomaly{}, false
	}

	mean, sd, err := stats.MeanStdDev(series)
	if err != nil {
		return models.Anomaly{}, false
	}
	z := math.Abs(stats.ZScore(price, mean, sd))
	if z <= d.cfg.StdDevThreshold {
		return models.Anomaly{}, false
	}
	return models.Anomaly{
		Kind:           models.AnomalyStatisticalOutlier,
		Subject:        asset,
		CurrentValue:   price,
		ReferenceValue: mean,
		MetricValue:    z,
		Threshold:      d.cfg.StdDevThreshold,
		Severity:       gradeSeverity(z, d.cfg.StdDevThreshold),
	}, true
}

func (d *Detector) marketMetricAnomalies(p models.MarketMetrics, hist []history.Point) []models.Anomaly {
	if p.Metrics == nil {
		d.logger.Debug().Msg("Market metrics payload without metrics object, skipping rules")
		return nil
	}

	var anomalies []models.Anomaly

	// Combined dominance over 100% is a hard violation, not graded
	// against a threshold ratio.
	dominance := p.Metrics.BTCDominance + p.Metrics.ETHDominance
	if dominance > 100 {
		anomalies = append(anomalies, models.Anomaly{
			Kind:           models.AnomalyInconsistentData,
			Subject:        "marketDominance",
			CurrentValue:   dominance,
			ReferenceValue: 100,
			MetricValue:    dominance,
			Threshold:      100,
			Severity:       models.SeverityHigh,
			Message:        fmt.Sprintf("total dominance exceeds 100%%: %.2f%%", dominance),
		})
	}

	if prev, ok := hist[0].Payload.(models.MarketMetrics); ok && prev.Metrics != nil {
		change := PercentChange(p.Metrics.TotalMarketCap, prev.Metrics.TotalMarketCap)
		if change > d.cfg.SuddenChangeThreshold {
			anomalies = append(anomalies, models.Anomaly{
				Kind:           models.AnomalySuddenMarketCapChange,
				Subject:        "totalMarketCap",
				CurrentValue:   p.Metrics.TotalMarketCap,
				ReferenceValue: prev.Metrics.TotalMarketCap,
				MetricValue:    change,
				Threshold:      d.cfg.SuddenChangeThreshold,
				Severity:       gradeSeverity(change, d.cfg.SuddenChangeThreshold),
			})
		}
	}
	return anomalies
}

// Reports returns a copy of the accumulated anomaly log.
func (d *Detector) Reports() []models.AnomalyReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.AnomalyReport, len(d.reports))
	copy(out, d.reports)
	return out
}

// ClearReports resets the anomaly log.
func (d *Detector) ClearReports() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = nil
}

// PercentChange returns the absolute percent change from previous to
// current. A zero previous value yields +Inf, which exceeds any
// configured threshold.
func PercentChange(current, previous float64) float64 {
	return math.Abs((current - previous) / previous * 100)
}

// gradeSeverity derives severity purely from how far value exceeds
// threshold.
func gradeSeverity(value, threshold float64) models.Severity {
	ratio := value / threshold
	switch {
	case ratio >= 2:
		return models.SeverityHigh
	case ratio >= 1.5:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
