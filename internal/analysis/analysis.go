// Package analysis computes signal stability statistics over a station's
// chronological signal history. Analysis is a pure reduction over an
// immutable snapshot of the sample sequence and is safe to run
// concurrently for different stations.
package analysis

import (
	"math"
	"sort"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	// MinSamples is the smallest history that yields meaningful statistics.
	MinSamples = 3

	// TrendMinSamples is the smallest history for which the half-split
	// trend comparison is attempted.
	TrendMinSamples = 10

	// trendThresholdDBM is the half-mean difference below which the
	// signal is considered to be holding steady.
	trendThresholdDBM = 3.0
)

// Stability is a qualitative band derived from the standard deviation of
// the signal level sequence.
type Stability string

const (
	StabilityVeryStable Stability = "VERY_STABLE" // std dev < 2 dBm
	StabilityStable     Stability = "STABLE"      // std dev < 5 dBm
	StabilityModerate   Stability = "MODERATE"    // std dev < 10 dBm
	StabilityUnstable   Stability = "UNSTABLE"
	StabilityUnknown    Stability = "UNKNOWN" // fewer than MinSamples samples
)

// Trend describes how the signal level moved between the first and second
// half of the observation window. Rising dBm (less negative) is improving.
type Trend string

const (
	TrendImproving        Trend = "IMPROVING"
	TrendDeteriorating    Trend = "DETERIORATING"
	TrendStable           Trend = "STABLE"
	TrendInsufficientData Trend = "INSUFFICIENT_DATA" // fewer than TrendMinSamples samples
)

// Report summarizes the stability of a signal level sequence.
type Report struct {
	Samples   int       `json:"samples"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	StdDev    float64   `json:"stdDev"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
	Range     int       `json:"range"`
	Stability Stability `json:"stability"`
	Trend     Trend     `json:"trend"`
}

// Analyze reduces a chronological signal sample sequence into a stability
// report. Fewer than MinSamples samples is not an error; it produces an
// explicit insufficient-data report with StabilityUnknown. Timestamps are
// ignored by the statistics; sample order matters only to the trend test.
func Analyze(samples []wifi.SignalSample) Report {
	if len(samples) < MinSamples {
		return Report{
			Samples:   len(samples),
			Stability: StabilityUnknown,
			Trend:     TrendInsufficientData,
		}
	}

	levels := make([]float64, len(samples))
	minLevel, maxLevel := samples[0].SignalDBM, samples[0].SignalDBM
	var sum float64
	for i, s := range samples {
		levels[i] = float64(s.SignalDBM)
		sum += levels[i]
		if s.SignalDBM < minLevel {
			minLevel = s.SignalDBM
		}
		if s.SignalDBM > maxLevel {
			maxLevel = s.SignalDBM
		}
	}

	mean := sum / float64(len(levels))
	stdDev := populationStdDev(levels, mean)

	return Report{
		Samples:   len(samples),
		Mean:      mean,
		Median:    median(levels),
		StdDev:    stdDev,
		Min:       minLevel,
		Max:       maxLevel,
		Range:     maxLevel - minLevel,
		Stability: stabilityBand(stdDev),
		Trend:     trend(levels),
	}
}

func populationStdDev(levels []float64, mean float64) float64 {
	var sumSquares float64
	for _, v := range levels {
		d := v - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(levels)))
}

func median(levels []float64) float64 {
	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func stabilityBand(stdDev float64) Stability {
	switch {
	case stdDev < 2:
		return StabilityVeryStable
	case stdDev < 5:
		return StabilityStable
	case stdDev < 10:
		return StabilityModerate
	default:
		return StabilityUnstable
	}
}

// trend splits the sequence at its midpoint and compares half means.
// A second half more than trendThresholdDBM above the first (signal became
// less negative) is improving; more than the threshold below, deteriorating.
func trend(levels []float64) Trend {
	if len(levels) < TrendMinSamples {
		return TrendInsufficientData
	}

	mid := len(levels) / 2
	firstMean := meanOf(levels[:mid])
	secondMean := meanOf(levels[mid:])

	diff := secondMean - firstMean
	switch {
	case diff > trendThresholdDBM:
		return TrendImproving
	case diff < -trendThresholdDBM:
		return TrendDeteriorating
	default:
		return TrendStable
	}
}

func meanOf(levels []float64) float64 {
	var sum float64
	for _, v := range levels {
		sum += v
	}
	return sum / float64(len(levels))
}
