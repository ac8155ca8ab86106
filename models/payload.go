package models

import "encoding/json"

// PayloadKind tags the closed set of payload variants.
type PayloadKind int

const (
	KindUnknown PayloadKind = iota
	KindAssetPrices
	KindMarketMetrics
)

// Payload is the typed, decoded content of a submission's data value.
// The variant set is closed: AssetPrices, MarketMetrics and Unknown.
type Payload interface {
	Kind() PayloadKind
	// TypeName returns the declared wire type, e.g. "ASSET_PRICES".
	TypeName() string
	// UnixMillis returns the payload's own timestamp, 0 when absent.
	UnixMillis() int64
}

// AssetQuote is the predicted price for a single asset.
type AssetQuote struct {
	Price    float64 `json:"price"`
	Change   float64 `json:"change"`
	Currency string  `json:"currency"`
}

// AssetPrices carries per-asset price predictions.
type AssetPrices struct {
	Timestamp   int64                 `json:"timestamp"`
	Predictions map[string]AssetQuote `json:"predictions"`
}

func (AssetPrices) Kind() PayloadKind   { return KindAssetPrices }
func (AssetPrices) TypeName() string    { return DataTypeAssetPrices }
func (p AssetPrices) UnixMillis() int64 { return p.Timestamp }

func (p AssetPrices) MarshalJSON() ([]byte, error) {
	type alias AssetPrices
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: p.TypeName(), alias: alias(p)})
}

// MetricSet holds aggregate market-level metrics.
type MetricSet struct {
	TotalMarketCap float64 `json:"totalMarketCap"`
	BTCDominance   float64 `json:"btcDominance"`
	ETHDominance   float64 `json:"ethDominance"`
	TotalVolume24h float64 `json:"totalVolume24h,omitempty"`
}

// MarketMetrics carries market-wide aggregates. Metrics is nil when the
// wire payload had no metrics object.
type MarketMetrics struct {
	Timestamp int64      `json:"timestamp"`
	Metrics   *MetricSet `json:"metrics"`
}

func (MarketMetrics) Kind() PayloadKind   { return KindMarketMetrics }
func (MarketMetrics) TypeName() string    { return DataTypeMarketMetrics }
func (p MarketMetrics) UnixMillis() int64 { return p.Timestamp }

func (p MarketMetrics) MarshalJSON() ([]byte, error) {
	type alias MarketMetrics
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: p.TypeName(), alias: alias(p)})
}

// Unknown carries any other declared type through without deep validation.
type Unknown struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func (Unknown) Kind() PayloadKind   { return KindUnknown }
func (p Unknown) TypeName() string  { return p.Type }
func (p Unknown) UnixMillis() int64 { return p.Timestamp }
