package earthdata

import (
	"sort"
	"time"
)

// DayUTC normalizes a timestamp to midnight UTC. All series points carry
// daily resolution, so provider timestamps collapse onto their day.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeSeries sorts points by date ascending and keeps the first
// point for each day. Satellite passes can produce several granules per
// day; one observation per day is the contract cached series follow.
func NormalizeSeries(points []TimeSeriesPoint) []TimeSeriesPoint {
	if len(points) == 0 {
		return points
	}

	sorted := make([]TimeSeriesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	var lastDay time.Time
	for _, p := range sorted {
		day := DayUTC(p.Date)
		if !lastDay.IsZero() && day.Equal(lastDay) {
			continue
		}
		p.Date = day
		out = append(out, p)
		lastDay = day
	}
	return out
}

// AverageValue returns the mean value of the series, or 0 for an empty
// series.
func AverageValue(points []TimeSeriesPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

// LatestPoint returns the most recent point of an ordered series.
func LatestPoint(points []TimeSeriesPoint) (TimeSeriesPoint, bool) {
	if len(points) == 0 {
		return TimeSeriesPoint{}, false
	}
	return points[len(points)-1], true
}

// ClampValue bounds v to [lo, hi].
func ClampValue(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
