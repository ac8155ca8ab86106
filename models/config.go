package models

import (
	"fmt"
	"time"
)

// Config holds the validation engine thresholds. Immutable once handed to
// a detector or agent; validated at construction time.
type Config struct {
	// StdDevThreshold is the |z-score| above which a value is a
	// statistical outlier.
	StdDevThreshold float64

	// SuddenChangeThreshold is the default percent-change threshold for
	// sudden price / market cap moves.
	SuddenChangeThreshold float64

	// MinDataPoints is the minimum number of filtered historical points
	// required before statistical comparison is attempted.
	MinDataPoints int

	// MaxDataAge bounds how old a historical record may be to count.
	MaxDataAge time.Duration

	// AssetThresholds overrides SuddenChangeThreshold per asset symbol.
	// Overrides gate only the sudden-change rule, not the outlier rule.
	AssetThresholds map[string]float64

	// ConfidenceThreshold is the minimum confidence for a VALID verdict.
	ConfidenceThreshold float64

	// InvalidThreshold is the confidence at or below which the verdict
	// is INVALID.
	InvalidThreshold float64

	// ReasoningSteps is the number of checks the decision agent runs.
	ReasoningSteps int

	// MaxRetries is advisory for callers re-queueing UNCERTAIN results;
	// the engine never retries internally.
	MaxRetries int
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		StdDevThreshold:       3,
		SuddenChangeThreshold: 20,
		MinDataPoints:         5,
		MaxDataAge:            7 * 24 * time.Hour,
		AssetThresholds: map[string]float64{
			"BTC":  15,
			"ETH":  20,
			"CORE": 25,
		},
		ConfidenceThreshold: 0.75,
		InvalidThreshold:    0.3,
		ReasoningSteps:      3,
		MaxRetries:          2,
	}
}

// AssetThreshold returns the sudden-change threshold for an asset, using
// the per-asset override when one exists.
func (c Config) AssetThreshold(asset string) float64 {
	if t, ok := c.AssetThresholds[asset]; ok {
		return t
	}
	return c.SuddenChangeThreshold
}

// Validate rejects configurations that would make the engine misbehave.
func (c Config) Validate() error {
	if c.StdDevThreshold <= 0 {
		return fmt.Errorf("config: stddev threshold must be positive, got %v", c.StdDevThreshold)
	}
	if c.SuddenChangeThreshold <= 0 {
		return fmt.Errorf("config: sudden change threshold must be positive, got %v", c.SuddenChangeThreshold)
	}
	if c.MinDataPoints <= 0 {
		return fmt.Errorf("config: min data points must be positive, got %d", c.MinDataPoints)
	}
	if c.MaxDataAge <= 0 {
		return fmt.Errorf("config: max data age must be positive, got %v", c.MaxDataAge)
	}
	for asset, t := range c.AssetThresholds {
		if t <= 0 {
			return fmt.Errorf("config: threshold for %s must be positive, got %v", asset, t)
		}
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence threshold must be in (0,1], got %v", c.ConfidenceThreshold)
	}
	if c.InvalidThreshold < 0 || c.InvalidThreshold >= c.ConfidenceThreshold {
		return fmt.Errorf("config: invalid threshold must be in [0, confidence threshold), got %v", c.InvalidThreshold)
	}
	if c.ReasoningSteps <= 0 {
		return fmt.Errorf("config: reasoning steps must be positive, got %d", c.ReasoningSteps)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}
