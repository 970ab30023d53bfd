package earthdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRequestKey(t *testing.T) {
	req := FetchRequest{
		Lat:          23.8103,
		Lon:          90.4125,
		Start:        time.Date(2026, 5, 1, 13, 45, 0, 0, time.UTC),
		End:          time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		ParameterSet: ParameterSoilMoisture,
	}
	assert.Equal(t, "23.8103:90.4125:2026-05-01:2026-05-31:soil_moisture", req.Key())

	// Sub-4-decimal noise maps to the same entry.
	noisy := req
	noisy.Lat = 23.81030004
	assert.Equal(t, req.Key(), noisy.Key())

	// A different parameter set never collides.
	ndvi := req
	ndvi.ParameterSet = ParameterNDVI
	assert.NotEqual(t, req.Key(), ndvi.Key())
}

func TestCentroidPrefersPoint(t *testing.T) {
	a := AreaOfInterest{Point: &Coordinate{Lat: 23.81, Lon: 90.41}}
	assert.Equal(t, Coordinate{Lat: 23.81, Lon: 90.41}, a.Centroid())
}

func TestCentroidDropsClosingVertex(t *testing.T) {
	a := AreaOfInterest{Polygon: []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 2, Lon: 2},
		{Lat: 2, Lon: 0},
		{Lat: 0, Lon: 0}, // closing vertex must not skew the mean
	}}
	c := a.Centroid()
	assert.InDelta(t, 1.0, c.Lat, 1e-9)
	assert.InDelta(t, 1.0, c.Lon, 1e-9)
}

func TestNormalizeSeriesSortsAndDeduplicates(t *testing.T) {
	d1 := time.Date(2026, 5, 2, 6, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)

	got := NormalizeSeries([]TimeSeriesPoint{
		{Date: d1, Value: 0.3},
		{Date: d2, Value: 0.2},
		{Date: d3, Value: 0.1},
	})

	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Before(got[1].Date))
	// First point for the duplicated day wins after the stable sort.
	assert.Equal(t, 0.1, got[0].Value)
	// Timestamps collapse onto midnight UTC.
	assert.Equal(t, 0, got[0].Date.Hour())
}

func TestLatestPoint(t *testing.T) {
	_, ok := LatestPoint(nil)
	assert.False(t, ok)

	series := []TimeSeriesPoint{{Value: 0.1}, {Value: 0.2}}
	latest, ok := LatestPoint(series)
	require.True(t, ok)
	assert.Equal(t, 0.2, latest.Value)
}
