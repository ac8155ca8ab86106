// Package payload normalizes raw submission data values into the closed
// set of typed payload variants.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alias1177/OracleGuard/models"
)

// ErrParse marks a data value that could not be decoded. Callers convert
// it into an ERROR decision or an error-noted report; it is never allowed
// to escape the engine.
var ErrParse = errors.New("payload: parse error")

// envelope is the wire shape shared by all payload variants.
type envelope struct {
	Type        string                       `json:"type"`
	Timestamp   int64                        `json:"timestamp"`
	Predictions map[string]models.AssetQuote `json:"predictions"`
	Metrics     *models.MetricSet            `json:"metrics"`
}

// Normalize decodes a submission's raw data value into a typed payload.
// Input may be an encoded JSON string/byte slice, a decoded structure, or
// an already-normalized payload. Unrecognized declared types come back as
// models.Unknown; undecodable input fails with ErrParse.
func Normalize(raw any) (models.Payload, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: data value is nil", ErrParse)
	case models.Payload:
		return v, nil
	case string:
		return decode([]byte(v))
	case []byte:
		return decode(v)
	case json.RawMessage:
		return decode(v)
	default:
		// Decoded structure from the caller (e.g. map[string]any from an
		// HTTP body); round-trip through JSON to reach the envelope.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return decode(b)
	}
}

func decode(b []byte) (models.Payload, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	switch env.Type {
	case models.DataTypeAssetPrices:
		return models.AssetPrices{Timestamp: env.Timestamp, Predictions: env.Predictions}, nil
	case models.DataTypeMarketMetrics:
		return models.MarketMetrics{Timestamp: env.Timestamp, Metrics: env.Metrics}, nil
	default:
		return models.Unknown{Type: env.Type, Timestamp: env.Timestamp}, nil
	}
}
