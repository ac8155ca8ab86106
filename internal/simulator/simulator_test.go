package simulator

import (
	"testing"

	"github.com/Alias1177/OracleGuard/internal/payload"
	"github.com/Alias1177/OracleGuard/models"
)

func TestAssetPricesStayPositiveAndParsable(t *testing.T) {
	s := New(1)

	for i := 0; i < 200; i++ {
		sub := s.NextAssetPrices()

		if sub.DataType != models.DataTypeAssetPrices {
			t.Fatalf("dataType = %q", sub.DataType)
		}
		p, err := payload.Normalize(sub.DataValue)
		if err != nil {
			t.Fatalf("cycle %d: generated submission does not normalize: %v", i, err)
		}
		prices, ok := p.(models.AssetPrices)
		if !ok {
			t.Fatalf("cycle %d: wrong payload type %T", i, p)
		}
		for asset, quote := range prices.Predictions {
			if quote.Price <= 0 {
				t.Fatalf("cycle %d: %s price %v not positive", i, asset, quote.Price)
			}
		}
	}
}

func TestMarketMetricsRespectDominanceInvariant(t *testing.T) {
	s := New(2)

	for i := 0; i < 200; i++ {
		sub := s.NextMarketMetrics()

		p, err := payload.Normalize(sub.DataValue)
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		metrics := p.(models.MarketMetrics)
		if metrics.Metrics == nil {
			t.Fatal("metrics object missing")
		}
		if sum := metrics.Metrics.BTCDominance + metrics.Metrics.ETHDominance; sum > 100 {
			t.Fatalf("cycle %d: combined dominance %v exceeds 100", i, sum)
		}
	}
}

func TestSubmissionIDsIncrement(t *testing.T) {
	s := New(3)

	first := s.NextAssetPrices()
	second := s.NextMarketMetrics()
	third := s.NextAssetPrices()

	if first.ID != 0 || second.ID != 1 || third.ID != 2 {
		t.Errorf("ids = %d, %d, %d; want 0, 1, 2", first.ID, second.ID, third.ID)
	}
}

func TestConfidenceWithinRange(t *testing.T) {
	s := New(4)

	for i := 0; i < 100; i++ {
		sub := s.NextAssetPrices()
		if sub.Confidence < minConfidence || sub.Confidence > maxConfidence {
			t.Fatalf("confidence %v outside [%d,%d]", sub.Confidence, minConfidence, maxConfidence)
		}
	}
}

func TestAssetHistoryBounded(t *testing.T) {
	s := New(5)

	for i := 0; i < maxPriceHistory+50; i++ {
		s.NextAssetPrices()
	}
	if n := len(s.AssetHistory("BTC")); n > maxPriceHistory {
		t.Errorf("history length %d exceeds cap %d", n, maxPriceHistory)
	}
}
