// Package agent implements the rule-based reasoning layer that turns
// structural and anomaly signals into a graded verdict with a confidence
// score.
package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/detector"
	"github.com/Alias1177/OracleGuard/internal/history"
	"github.com/Alias1177/OracleGuard/internal/payload"
	"github.com/Alias1177/OracleGuard/models"
)

// analysisState traces the per-call pipeline. Linear, no internal
// retries: MaxRetries is for callers re-queueing UNCERTAIN results.
type analysisState string

const (
	stateReceived    analysisState = "RECEIVED"
	stateNormalizing analysisState = "NORMALIZING"
	stateReasoning   analysisState = "REASONING"
	stateScoring     analysisState = "SCORING"
)

// Agent analyzes submissions and keeps an append-only log of every
// completed decision.
type Agent struct {
	cfg    models.Config
	logger zerolog.Logger

	mu        sync.Mutex
	decisions []models.Decision
}

// New validates the configuration and creates an agent.
func New(cfg models.Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return &Agent{
		cfg:    cfg,
		logger: log.With().Str("component", "decision_agent").Logger(),
	}, nil
}

// AnalyzeSubmission runs the ordered reasoning checks over a submission
// and maps the resulting confidence to a verdict. It never fails: a
// decode failure yields an ERROR decision with confidence 0.
func (a *Agent) AnalyzeSubmission(sub models.Submission, records []models.HistoricalRecord) models.Decision {
	a.trace(sub.ID, stateReceived)

	a.trace(sub.ID, stateNormalizing)
	pl, err := payload.Normalize(sub.DataValue)
	if err != nil {
		decision := models.Decision{
			SubmissionID: sub.ID,
			Result:       models.VerdictError,
			Confidence:   0,
			Reasoning: []models.ReasoningStep{
				{Kind: models.FindingNegative, Message: "analysis failed: submission data could not be decoded"},
			},
			ErrorDetail: err.Error(),
			Timestamp:   time.Now().UnixMilli(),
		}
		a.logger.Error().Err(err).Int64("submission_id", sub.ID).Msg("Analysis failed")
		a.record(decision)
		return decision
	}

	a.trace(sub.ID, stateReasoning)
	steps := []models.ReasoningStep{
		a.checkStructure(pl),
		a.checkHistory(pl, records),
		a.checkConsistency(pl),
	}

	a.trace(sub.ID, stateScoring)
	confidence := scoreConfidence(steps)

	decision := models.Decision{
		SubmissionID: sub.ID,
		Result:       a.verdictFor(confidence),
		Confidence:   confidence,
		Reasoning:    steps,
		Timestamp:    time.Now().UnixMilli(),
	}

	a.logger.Info().
		Int64("submission_id", sub.ID).
		Str("result", string(decision.Result)).
		Float64("confidence", confidence).
		Msg("Submission analyzed")

	a.record(decision)
	return decision
}

// checkStructure verifies the payload carries a type, a timestamp and its
// type-specific required fields.
func (a *Agent) checkStructure(pl models.Payload) models.ReasoningStep {
	if u, ok := pl.(models.Unknown); ok && u.Type == "" {
		return negative("missing data type")
	}
	if pl.UnixMillis() == 0 {
		return negative("missing timestamp")
	}

	switch p := pl.(type) {
	case models.AssetPrices:
		if len(p.Predictions) == 0 {
			return negative("asset price data missing predictions")
		}
		return positive("data structure contains all required fields for asset prices")
	case models.MarketMetrics:
		if p.Metrics == nil {
			return negative("market metrics data missing metrics object")
		}
		return positive("data structure contains all required fields for market metrics")
	}

	u := pl.(models.Unknown)
	return models.ReasoningStep{
		Kind:    models.FindingUncertain,
		Message: fmt.Sprintf("unknown data type %q", u.Type),
	}
}

// checkHistory compares the submission against the most recent comparable
// historical point using the detector's percent-change rule. Absent
// history is a neutral finding, not a negative one.
func (a *Agent) checkHistory(pl models.Payload, records []models.HistoricalRecord) models.ReasoningStep {
	if len(records) == 0 {
		return neutral("no historical data available for comparison")
	}

	relevant := history.Filter(pl, records, a.cfg.MaxDataAge, time.Now())
	if len(relevant) == 0 {
		return neutral("no comparable historical data found")
	}

	switch p := pl.(type) {
	case models.AssetPrices:
		prev, ok := relevant[0].Payload.(models.AssetPrices)
		if !ok {
			return neutral("no comparable historical asset price data found")
		}

		assets := make([]string, 0, len(p.Predictions))
		for asset := range p.Predictions {
			assets = append(assets, asset)
		}
		sort.Strings(assets)

		var jumps []string
		for _, asset := range assets {
			previous, ok := prev.Predictions[asset]
			if !ok {
				continue
			}
			change := detector.PercentChange(p.Predictions[asset].Price, previous.Price)
			if change > a.cfg.SuddenChangeThreshold {
				jumps = append(jumps, fmt.Sprintf("%s price changed by %.2f%%", asset, change))
			}
		}
		if len(jumps) > 0 {
			return negative("potential anomalies detected: " + strings.Join(jumps, ", "))
		}
		return positive("no significant anomalies detected in asset prices")

	case models.MarketMetrics:
		prev, ok := relevant[0].Payload.(models.MarketMetrics)
		if !ok || prev.Metrics == nil || p.Metrics == nil {
			return neutral("no comparable historical market metrics found")
		}
		change := detector.PercentChange(p.Metrics.TotalMarketCap, prev.Metrics.TotalMarketCap)
		if change > a.cfg.SuddenChangeThreshold {
			return negative(fmt.Sprintf("potential anomalies detected: total market cap changed by %.2f%%", change))
		}
		return positive("no significant anomalies detected in market metrics")
	}

	return neutral("historical comparison not supported for this data type")
}

// checkConsistency applies type-specific field-level sanity rules.
func (a *Agent) checkConsistency(pl models.Payload) models.ReasoningStep {
	switch p := pl.(type) {
	case models.AssetPrices:
		assets := make([]string, 0, len(p.Predictions))
		for asset, quote := range p.Predictions {
			if quote.Price <= 0 {
				assets = append(assets, asset)
			}
		}
		if len(assets) > 0 {
			sort.Strings(assets)
			return negative("negative or zero prices for assets: " + strings.Join(assets, ", "))
		}
		return positive("all asset prices are positive and consistent")

	case models.MarketMetrics:
		if p.Metrics == nil {
			return neutral("metrics object absent, consistency not evaluated")
		}
		if p.Metrics.BTCDominance+p.Metrics.ETHDominance > 100 {
			return negative("BTC and ETH dominance combined exceeds 100%")
		}
		return positive("market metrics are internally consistent")
	}

	return neutral("consistency check not supported for this data type")
}

// scoreConfidence converts the fraction of penalized findings into a
// confidence score, clamped to [0,1].
func scoreConfidence(steps []models.ReasoningStep) float64 {
	if len(steps) == 0 {
		return 0
	}
	penalized := 0
	for _, s := range steps {
		if s.Penalized() {
			penalized++
		}
	}
	confidence := 1 - float64(penalized)/float64(len(steps))
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func (a *Agent) verdictFor(confidence float64) models.Verdict {
	switch {
	case confidence >= a.cfg.ConfidenceThreshold:
		return models.VerdictValid
	case confidence <= a.cfg.InvalidThreshold:
		return models.VerdictInvalid
	default:
		return models.VerdictUncertain
	}
}

func (a *Agent) record(decision models.Decision) {
	a.mu.Lock()
	a.decisions = append(a.decisions, decision)
	a.mu.Unlock()
}

// Decisions returns a copy of the accumulated decision log.
func (a *Agent) Decisions() []models.Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Decision, len(a.decisions))
	copy(out, a.decisions)
	return out
}

// ClearDecisions resets the decision log.
func (a *Agent) ClearDecisions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decisions = nil
}

func (a *Agent) trace(id int64, s analysisState) {
	a.logger.Debug().Int64("submission_id", id).Str("state", string(s)).Msg("State transition")
}

func negative(msg string) models.ReasoningStep {
	return models.ReasoningStep{Kind: models.FindingNegative, Message: msg}
}

func neutral(msg string) models.ReasoningStep {
	return models.ReasoningStep{Kind: models.FindingNeutral, Message: msg}
}

func positive(msg string) models.ReasoningStep {
	return models.ReasoningStep{Kind: models.FindingPositive, Message: msg}
}
