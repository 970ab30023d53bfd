// Package analytics derives agricultural metrics from fetched time
// series. Every function is pure: no I/O, no failure on non-empty
// input, and an explicit "unknown / insufficient data" result on empty
// input so callers can still render a state.
package analytics

import (
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
	TrendUnknown    TrendDirection = "unknown"
)

// DefaultTrendWindow is how many recent points the regression sees.
const DefaultTrendWindow = 5

// Classification threshold: slope-per-step relative to the window mean,
// in percent.
const trendStableBand = 5.0

// Trend is the outcome of a least-squares fit over recent observations.
type Trend struct {
	Direction    TrendDirection `json:"direction"`
	SlopePercent float64        `json:"slopePercent"`
}

// CalculateTrend fits an ordinary least squares line over the most
// recent window points of the series and classifies the slope. The
// slope is normalized by the window mean and expressed as percent per
// step; within +/-5% the trend counts as stable. Fewer than two points,
// or a zero mean, yields TrendUnknown.
func CalculateTrend(series []earthdata.TimeSeriesPoint, window int) Trend {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(series) < 2 {
		return Trend{Direction: TrendUnknown}
	}

	recent := series
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	n := float64(len(recent))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range recent {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{Direction: TrendUnknown}
	}
	slope := (n*sumXY - sumX*sumY) / denom

	mean := sumY / n
	if mean == 0 {
		return Trend{Direction: TrendUnknown}
	}
	percent := slope / mean * 100

	t := Trend{SlopePercent: percent}
	switch {
	case percent > trendStableBand:
		t.Direction = TrendIncreasing
	case percent < -trendStableBand:
		t.Direction = TrendDecreasing
	default:
		t.Direction = TrendStable
	}
	return t
}
