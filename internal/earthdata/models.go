package earthdata

import (
	"fmt"
	"time"
)

// Quality describes how an observation was obtained. Callers use it to
// decide how much weight a value deserves: measured points come from
// satellite granules, modeled points from a reanalysis product, estimated
// points from the local seasonal fallback.
type Quality string

const (
	QualityMeasured  Quality = "measured"
	QualityModeled   Quality = "modeled"
	QualityEstimated Quality = "estimated"
)

// Parameter sets accepted by FetchRequest. The set is part of the cache
// key, so soil moisture and vegetation series for the same window never
// collide.
const (
	ParameterSoilMoisture = "soil_moisture"
	ParameterNDVI         = "ndvi"
	ParameterEVI          = "evi"
)

// TimeSeriesPoint is one dated observation. Soil moisture values are
// volumetric fractions in [0,1]; NDVI/EVI values are in [-1,1].
// Points are immutable once cached; a cache entry is replaced wholesale.
type TimeSeriesPoint struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Quality  Quality   `json:"quality"`
	SourceID string    `json:"sourceId"`
}

// VegetationObservation is one dated NDVI/EVI pair from the area
// extraction workflow, already scaled into the conventional [-1,1] range.
type VegetationObservation struct {
	Date    time.Time `json:"date"`
	NDVI    float64   `json:"ndvi"`
	EVI     float64   `json:"evi"`
	Quality Quality   `json:"quality"`
}

// FetchRequest identifies a single logical acquisition: a point, a date
// window and a parameter set. It is immutable and doubles as the cache
// key via Key().
type FetchRequest struct {
	Lat          float64
	Lon          float64
	Start        time.Time
	End          time.Time
	ParameterSet string
}

// Key returns the canonical string form used to index the cache.
// Coordinates are truncated to 4 decimals (~11 m) so nearby float noise
// maps to the same entry.
func (r FetchRequest) Key() string {
	return fmt.Sprintf("%.4f:%.4f:%s:%s:%s",
		r.Lat, r.Lon,
		r.Start.UTC().Format("2006-01-02"),
		r.End.UTC().Format("2006-01-02"),
		r.ParameterSet)
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AreaOfInterest is either a single point or a polygon ring. The area
// workflow reduces polygons to their centroid before building requests,
// since the upstream point API is used even for area queries.
type AreaOfInterest struct {
	Point   *Coordinate  `json:"point,omitempty"`
	Polygon []Coordinate `json:"polygon,omitempty"`
}

// Centroid reduces the area to a single coordinate. For polygons this is
// the arithmetic mean of the vertices, ignoring a closing vertex that
// repeats the first one.
func (a AreaOfInterest) Centroid() Coordinate {
	if a.Point != nil {
		return *a.Point
	}

	ring := a.Polygon
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	if len(ring) == 0 {
		return Coordinate{}
	}

	var sumLat, sumLon float64
	for _, c := range ring {
		sumLat += c.Lat
		sumLon += c.Lon
	}
	n := float64(len(ring))
	return Coordinate{Lat: sumLat / n, Lon: sumLon / n}
}
