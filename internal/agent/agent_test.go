package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/OracleGuard/models"
)

func newAgent(t *testing.T) *Agent {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.AssetThresholds = nil
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func pricesPayload(ts int64, prices map[string]float64) models.AssetPrices {
	predictions := make(map[string]models.AssetQuote, len(prices))
	for asset, price := range prices {
		predictions[asset] = models.AssetQuote{Price: price, Currency: "USD"}
	}
	return models.AssetPrices{Timestamp: ts, Predictions: predictions}
}

func stableHistory(prices map[string]float64, n int) []models.HistoricalRecord {
	now := time.Now()
	records := make([]models.HistoricalRecord, 0, n)
	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(i+1) * time.Hour).UnixMilli()
		records = append(records, models.HistoricalRecord{
			Data:      pricesPayload(ts, prices),
			Timestamp: ts,
		})
	}
	return records
}

func TestCleanSubmissionIsValid(t *testing.T) {
	a := newAgent(t)
	sub := models.Submission{
		ID:        1,
		DataType:  models.DataTypeAssetPrices,
		DataValue: pricesPayload(time.Now().UnixMilli(), map[string]float64{"BTC": 50500}),
	}

	decision := a.AnalyzeSubmission(sub, stableHistory(map[string]float64{"BTC": 50000}, 5))

	assert.Equal(t, models.VerdictValid, decision.Result)
	assert.Equal(t, 1.0, decision.Confidence)
	require.Len(t, decision.Reasoning, 3)
	for _, step := range decision.Reasoning {
		assert.Equal(t, models.FindingPositive, step.Kind)
	}
}

func TestNoHistoryIsNeutralNotNegative(t *testing.T) {
	a := newAgent(t)
	sub := models.Submission{
		ID:        2,
		DataValue: pricesPayload(time.Now().UnixMilli(), map[string]float64{"BTC": 50000}),
	}

	decision := a.AnalyzeSubmission(sub, nil)

	assert.Equal(t, models.VerdictValid, decision.Result)
	assert.Equal(t, 1.0, decision.Confidence)
	require.Len(t, decision.Reasoning, 3)
	assert.Equal(t, models.FindingNeutral, decision.Reasoning[1].Kind)
}

func TestNegativePriceWithCorroboratingHistoryIsInvalid(t *testing.T) {
	// Missing timestamp, a wild swing against history, and a negative
	// price: every step negative, confidence 0.
	a := newAgent(t)
	sub := models.Submission{
		ID:        3,
		DataValue: pricesPayload(0, map[string]float64{"BTC": -1}),
	}

	decision := a.AnalyzeSubmission(sub, stableHistory(map[string]float64{"BTC": 50000}, 5))

	assert.Equal(t, models.VerdictInvalid, decision.Result)
	assert.Equal(t, 0.0, decision.Confidence)
	for _, step := range decision.Reasoning {
		assert.Equal(t, models.FindingNegative, step.Kind, step.Message)
	}
}

func TestNegativePriceAloneIsNotValid(t *testing.T) {
	// Without history the middle step stays neutral, so two of three
	// steps are negative: confidence 1/3, just above the INVALID cutoff.
	a := newAgent(t)
	sub := models.Submission{
		ID:        4,
		DataValue: pricesPayload(0, map[string]float64{"BTC": -1}),
	}

	decision := a.AnalyzeSubmission(sub, nil)

	assert.Equal(t, models.VerdictUncertain, decision.Result)
	assert.InDelta(t, 1.0/3.0, decision.Confidence, 1e-9)
}

func TestDominanceViolationLowersConfidence(t *testing.T) {
	a := newAgent(t)
	now := time.Now()

	var records []models.HistoricalRecord
	for i := 0; i < 5; i++ {
		ts := now.Add(-time.Duration(i+1) * time.Hour).UnixMilli()
		records = append(records, models.HistoricalRecord{
			Data: models.MarketMetrics{
				Timestamp: ts,
				Metrics:   &models.MetricSet{TotalMarketCap: 1e12, BTCDominance: 50, ETHDominance: 18},
			},
			Timestamp: ts,
		})
	}

	sub := models.Submission{
		ID: 5,
		DataValue: models.MarketMetrics{
			Timestamp: now.UnixMilli(),
			Metrics:   &models.MetricSet{TotalMarketCap: 1e12, BTCDominance: 60, ETHDominance: 45},
		},
	}

	decision := a.AnalyzeSubmission(sub, records)

	require.Len(t, decision.Reasoning, 3)
	assert.Equal(t, models.FindingNegative, decision.Reasoning[2].Kind)
	assert.InDelta(t, 2.0/3.0, decision.Confidence, 1e-9)
	assert.Equal(t, models.VerdictUncertain, decision.Result)
}

func TestUnparsableDataYieldsErrorDecision(t *testing.T) {
	a := newAgent(t)

	decision := a.AnalyzeSubmission(models.Submission{ID: 6, DataValue: "definitely not json"}, nil)

	assert.Equal(t, models.VerdictError, decision.Result)
	assert.Equal(t, 0.0, decision.Confidence)
	assert.Len(t, decision.Reasoning, 1)
	assert.NotEmpty(t, decision.ErrorDetail)
}

func TestUnknownTypeIsUncertain(t *testing.T) {
	a := newAgent(t)

	decision := a.AnalyzeSubmission(models.Submission{
		ID:        7,
		DataValue: `{"type":"WEATHER_DATA","timestamp":1700000000000}`,
	}, nil)

	require.Len(t, decision.Reasoning, 3)
	assert.Equal(t, models.FindingUncertain, decision.Reasoning[0].Kind)
	// The uncertain finding is penalized, the unsupported-type neutrals
	// are not.
	assert.InDelta(t, 2.0/3.0, decision.Confidence, 1e-9)
	assert.Equal(t, models.VerdictUncertain, decision.Result)
}

func TestMissingPredictionsIsStructuralViolation(t *testing.T) {
	a := newAgent(t)

	decision := a.AnalyzeSubmission(models.Submission{
		ID:        8,
		DataValue: `{"type":"ASSET_PRICES","timestamp":1700000000000,"predictions":{}}`,
	}, nil)

	require.Len(t, decision.Reasoning, 3)
	assert.Equal(t, models.FindingNegative, decision.Reasoning[0].Kind)
}

func TestConfidenceMonotonicInNegativeFindings(t *testing.T) {
	a := newAgent(t)
	now := time.Now().UnixMilli()
	hist := stableHistory(map[string]float64{"BTC": 50000}, 5)

	subs := []struct {
		name string
		sub  models.Submission
		hist []models.HistoricalRecord
	}{
		{"zero negatives", models.Submission{DataValue: pricesPayload(now, map[string]float64{"BTC": 50500})}, hist},
		{"one negative", models.Submission{DataValue: pricesPayload(now, map[string]float64{"BTC": -1})}, nil},
		{"two negatives", models.Submission{DataValue: pricesPayload(now, map[string]float64{"BTC": -1})}, hist},
		{"three negatives", models.Submission{DataValue: pricesPayload(0, map[string]float64{"BTC": -1})}, hist},
	}

	prev := 1.1
	for _, tc := range subs {
		decision := a.AnalyzeSubmission(tc.sub, tc.hist)
		assert.GreaterOrEqual(t, decision.Confidence, 0.0, tc.name)
		assert.LessOrEqual(t, decision.Confidence, 1.0, tc.name)
		assert.LessOrEqual(t, decision.Confidence, prev, tc.name)
		prev = decision.Confidence
	}
}

func TestAnalysisIsIdempotent(t *testing.T) {
	a := newAgent(t)
	sub := models.Submission{
		ID:        9,
		DataValue: pricesPayload(time.Now().UnixMilli(), map[string]float64{"BTC": 50000, "ETH": 3000}),
	}
	hist := stableHistory(map[string]float64{"BTC": 49000, "ETH": 2950}, 6)

	first := a.AnalyzeSubmission(sub, hist)
	second := a.AnalyzeSubmission(sub, hist)

	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reasoning, second.Reasoning)
}

func TestDecisionLogRecordsEveryCall(t *testing.T) {
	a := newAgent(t)

	a.AnalyzeSubmission(models.Submission{ID: 10, DataValue: pricesPayload(time.Now().UnixMilli(), map[string]float64{"BTC": 50000})}, nil)
	a.AnalyzeSubmission(models.Submission{ID: 11, DataValue: "broken"}, nil)

	decisions := a.Decisions()
	require.Len(t, decisions, 2)
	assert.Equal(t, int64(10), decisions[0].SubmissionID)
	assert.Equal(t, int64(11), decisions[1].SubmissionID)
	assert.Equal(t, models.VerdictError, decisions[1].Result)

	a.ClearDecisions()
	assert.Empty(t, a.Decisions())
}
