// Package stats provides the small statistical core used by anomaly
// detection: population mean/stddev and z-scores.
package stats

import (
	"errors"
	"math"

	mstats "github.com/montanaflynn/stats"
)

// ErrEmptySeries is returned when statistics are requested over no data.
var ErrEmptySeries = errors.New("stats: empty series")

// MeanStdDev returns the population mean and standard deviation of values
// (denominator N, not N-1).
func MeanStdDev(values []float64) (mean, stdDev float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptySeries
	}
	data := mstats.Float64Data(values)
	mean, err = mstats.Mean(data)
	if err != nil {
		return 0, 0, err
	}
	stdDev, err = mstats.StandardDeviationPopulation(data)
	if err != nil {
		return 0, 0, err
	}
	return mean, stdDev, nil
}

// ZScore returns how many standard deviations value lies from mean.
//
// A zero stdDev (constant history) is special-cased: the z-score is 0
// when the value equals the mean, +Inf otherwise. Any deviation from a
// perfectly constant series is treated as maximally anomalous.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		if value == mean {
			return 0
		}
		return math.Inf(1)
	}
	return (value - mean) / stdDev
}
