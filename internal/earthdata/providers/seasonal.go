package providers

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

// Monthly base moisture for the Bangladesh monsoon climate: June
// through October wet (peak in July/August), December through February
// dry. Values are volumetric fractions.
var bangladeshMonsoonProfile = [12]float64{
	0.17, // Jan
	0.15, // Feb
	0.18, // Mar
	0.22, // Apr
	0.27, // May
	0.34, // Jun
	0.40, // Jul
	0.38, // Aug
	0.36, // Sep
	0.32, // Oct
	0.24, // Nov
	0.19, // Dec
}

const (
	seasonalJitter = 0.02
	seasonalFloor  = 0.05
	seasonalCeil   = 0.55
)

// SeasonalEstimator is the terminal soil-moisture tier. It synthesizes
// one point per day from a fixed monthly wet/dry table plus bounded
// jitter seeded by (lat, lon, date), so identical requests always yield
// identical series. It cannot fail, which is what lets the fallback
// chain promise a series to every caller.
type SeasonalEstimator struct {
	name   string
	region string
}

func NewSeasonalEstimator(region string) *SeasonalEstimator {
	return &SeasonalEstimator{name: "seasonal", region: region}
}

func (p *SeasonalEstimator) Name() string { return p.name }

func (p *SeasonalEstimator) Fetch(ctx context.Context, req earthdata.FetchRequest) ([]earthdata.TimeSeriesPoint, error) {
	start := earthdata.DayUTC(req.Start)
	end := earthdata.DayUTC(req.End)

	var points []earthdata.TimeSeriesPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		base := bangladeshMonsoonProfile[day.Month()-1]
		value := base + seasonalNoise(req.Lat, req.Lon, day)
		points = append(points, earthdata.TimeSeriesPoint{
			Date:     day,
			Value:    earthdata.ClampValue(value, seasonalFloor, seasonalCeil),
			Quality:  earthdata.QualityEstimated,
			SourceID: "seasonal:" + p.region,
		})
	}

	return points, nil
}

// seasonalNoise maps (lat, lon, day) onto [-seasonalJitter,
// +seasonalJitter] deterministically.
func seasonalNoise(lat, lon float64, day time.Time) float64 {
	h := fnv.New64a()
	var buf [8]byte
	putFloat := func(f float64) {
		bits := math.Float64bits(f)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	putFloat(lat)
	putFloat(lon)
	h.Write([]byte(day.Format("2006-01-02")))

	frac := float64(h.Sum64()%10000) / 10000
	return (frac*2 - 1) * seasonalJitter
}
