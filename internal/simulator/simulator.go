// Package simulator generates synthetic oracle submissions: random-walk
// asset prices and market-wide metrics. It feeds demos and tests; the
// validation engine treats its output like any third-party submission.
package simulator

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/models"
)

const (
	maxPriceHistory = 1000
	minConfidence   = 50
	maxConfidence   = 95
)

// Simulator produces Submission values with incrementing ids and
// JSON-encoded data values, mirroring what the ingestion side delivers.
type Simulator struct {
	rng    *rand.Rand
	logger zerolog.Logger

	assets     []string
	volatility map[string]float64
	prices     map[string][]float64

	marketCap    float64
	btcDominance float64
	ethDominance float64

	counter int64
}

// New creates a simulator seeded for reproducibility in tests; pass
// time.Now().UnixNano() for varied runs.
func New(seed int64) *Simulator {
	assets := []string{"BTC", "ETH", "CORE", "BNB", "SOL"}
	base := map[string]float64{
		"BTC":  50000,
		"ETH":  3000,
		"CORE": 10,
		"BNB":  400,
		"SOL":  100,
	}
	volatility := map[string]float64{
		"BTC":  0.03,
		"ETH":  0.045,
		"CORE": 0.05,
		"BNB":  0.035,
		"SOL":  0.06,
	}

	prices := make(map[string][]float64, len(assets))
	for _, asset := range assets {
		prices[asset] = []float64{base[asset]}
	}

	return &Simulator{
		rng:          rand.New(rand.NewSource(seed)),
		logger:       log.With().Str("component", "simulator").Logger(),
		assets:       assets,
		volatility:   volatility,
		prices:       prices,
		marketCap:    1.7e12,
		btcDominance: 52,
		ethDominance: 17,
	}
}

// NextAssetPrices advances every asset one random-walk step and returns
// the resulting submission.
func (s *Simulator) NextAssetPrices() models.Submission {
	predictions := make(map[string]models.AssetQuote, len(s.assets))
	for _, asset := range s.assets {
		hist := s.prices[asset]
		last := hist[len(hist)-1]

		vol := s.volatility[asset]
		change := (s.rng.Float64() - 0.5) * 2 * vol * last
		next := last + change
		if next < 0.01 {
			next = 0.01
		}

		hist = append(hist, next)
		if len(hist) > maxPriceHistory {
			hist = hist[1:]
		}
		s.prices[asset] = hist

		predictions[asset] = models.AssetQuote{
			Price:    round2(next),
			Change:   round2((next/last - 1) * 100),
			Currency: "USD",
		}
	}

	payload := models.AssetPrices{
		Timestamp:   time.Now().UnixMilli(),
		Predictions: predictions,
	}
	return s.wrap(payload, models.DataTypeAssetPrices)
}

// NextMarketMetrics advances the market-level aggregates one step. The
// generated dominance values always satisfy the <=100% invariant; feeding
// the detector inconsistent data is the caller's job.
func (s *Simulator) NextMarketMetrics() models.Submission {
	s.marketCap *= 1 + (s.rng.Float64()-0.5)*2*0.02
	s.btcDominance = clamp(s.btcDominance+(s.rng.Float64()-0.5)*2, 30, 70)
	s.ethDominance = clamp(s.ethDominance+(s.rng.Float64()-0.5)*1, 5, 95-s.btcDominance)

	payload := models.MarketMetrics{
		Timestamp: time.Now().UnixMilli(),
		Metrics: &models.MetricSet{
			TotalMarketCap: s.marketCap,
			BTCDominance:   round2(s.btcDominance),
			ETHDominance:   round2(s.ethDominance),
			TotalVolume24h: s.marketCap * 0.05,
		},
	}
	return s.wrap(payload, models.DataTypeMarketMetrics)
}

// AssetHistory returns a copy of the generated price series for an asset.
func (s *Simulator) AssetHistory(asset string) []float64 {
	hist := s.prices[asset]
	out := make([]float64, len(hist))
	copy(out, hist)
	return out
}

// wrap JSON-encodes a payload into a Submission the way the ingestion
// side formats them for the chain.
func (s *Simulator) wrap(payload models.Payload, dataType string) models.Submission {
	id := s.counter
	s.counter++

	b, err := json.Marshal(payload)
	if err != nil {
		// Payload variants always marshal; keep the submission usable.
		s.logger.Error().Err(err).Msg("Failed to encode simulated payload")
		b = []byte("{}")
	}

	return models.Submission{
		ID:         id,
		DataType:   dataType,
		DataValue:  string(b),
		Confidence: float64(minConfidence + s.rng.Intn(maxConfidence-minConfidence+1)),
		Timestamp:  time.Now().UnixMilli(),
		Submitter:  "simulator",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
