// Package advisor is the outward face of the subsystem: it orchestrates
// the cache, the provider adapters and the analytics functions into the
// operations the rest of the application calls.
package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/analytics"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

// Service wires the store, the moisture fallback chain and the
// vegetation task workflow together. Derived metrics are recomputed on
// every call; only raw series are cached.
type Service struct {
	store       earthdata.SeriesStore
	moisture    earthdata.MoistureFetcher
	vegetation  earthdata.VegetationFetcher
	rootDepthCM float64
	logger      *zap.Logger
}

func NewService(store earthdata.SeriesStore, moisture earthdata.MoistureFetcher, vegetation earthdata.VegetationFetcher, rootDepthCM float64, logger *zap.Logger) *Service {
	if rootDepthCM <= 0 {
		rootDepthCM = analytics.DefaultRootDepthCM
	}
	return &Service{
		store:       store,
		moisture:    moisture,
		vegetation:  vegetation,
		rootDepthCM: rootDepthCM,
		logger:      logger,
	}
}

// GetSoilMoisture returns the soil-moisture series for a point and
// window, from cache when possible. It never fails: store errors count
// as misses and the fallback chain always produces a series.
func (s *Service) GetSoilMoisture(ctx context.Context, lat, lon float64, start, end time.Time) []earthdata.TimeSeriesPoint {
	req := earthdata.FetchRequest{
		Lat: lat, Lon: lon, Start: start, End: end,
		ParameterSet: earthdata.ParameterSoilMoisture,
	}

	if series, ok := s.readCache(req.Key()); ok {
		return series
	}
	return s.fetchAndCacheMoisture(ctx, req)
}

// RefreshSoilMoisture bypasses the cache read, re-runs the chain and
// overwrites the entry. The scheduler uses it to keep tracked
// locations warm.
func (s *Service) RefreshSoilMoisture(ctx context.Context, lat, lon float64, start, end time.Time) []earthdata.TimeSeriesPoint {
	req := earthdata.FetchRequest{
		Lat: lat, Lon: lon, Start: start, End: end,
		ParameterSet: earthdata.ParameterSoilMoisture,
	}
	return s.fetchAndCacheMoisture(ctx, req)
}

func (s *Service) fetchAndCacheMoisture(ctx context.Context, req earthdata.FetchRequest) []earthdata.TimeSeriesPoint {
	series := s.moisture.Fetch(ctx, req)
	if len(series) > 0 {
		s.writeCache(req.Key(), series)
	}
	return series
}

// GetVegetationIndex returns the NDVI/EVI series for an area and
// window. On a miss it runs the full task workflow and caches the two
// index series only on success; task failures, timeouts and
// authentication failures propagate to the caller.
func (s *Service) GetVegetationIndex(ctx context.Context, area earthdata.AreaOfInterest, start, end time.Time) ([]earthdata.VegetationObservation, error) {
	center := area.Centroid()
	ndviReq := earthdata.FetchRequest{
		Lat: center.Lat, Lon: center.Lon, Start: start, End: end,
		ParameterSet: earthdata.ParameterNDVI,
	}
	eviReq := ndviReq
	eviReq.ParameterSet = earthdata.ParameterEVI

	if ndvi, okN := s.readCache(ndviReq.Key()); okN {
		if evi, okE := s.readCache(eviReq.Key()); okE {
			return zipVegetation(ndvi, evi), nil
		}
	}

	taskID, err := s.vegetation.SubmitTask(ctx, area, start, end)
	if err != nil {
		return nil, err
	}
	observations, err := s.vegetation.AwaitAndDownload(ctx, taskID)
	if err != nil {
		return nil, err
	}

	ndvi, evi := splitVegetation(observations)
	s.writeCache(ndviReq.Key(), ndvi)
	s.writeCache(eviReq.Key(), evi)
	return observations, nil
}

// GetDroughtAssessment classifies drought conditions for a point. Like
// the underlying moisture path it never fails; an empty series comes
// back as the explicit unknown assessment.
func (s *Service) GetDroughtAssessment(ctx context.Context, lat, lon float64, start, end time.Time) analytics.DroughtAssessment {
	series := s.GetSoilMoisture(ctx, lat, lon, start, end)
	return analytics.DetectDrought(series)
}

// GetIrrigationPlan sizes the water volume needed to lift the latest
// observed moisture to the target over the given area.
func (s *Service) GetIrrigationPlan(ctx context.Context, lat, lon float64, start, end time.Time, targetMoisture, areaHa float64) analytics.IrrigationPlan {
	series := s.GetSoilMoisture(ctx, lat, lon, start, end)
	latest, ok := earthdata.LatestPoint(series)
	if !ok {
		return analytics.IrrigationPlan{}
	}
	return analytics.CalculateIrrigationNeeds(latest.Value, targetMoisture, areaHa, s.rootDepthCM)
}

// GetGrazingPlan schedules a rotation from the latest NDVI observation.
// Vegetation-path failures propagate.
func (s *Service) GetGrazingPlan(ctx context.Context, area earthdata.AreaOfInterest, start, end time.Time, areaHa float64, animals int, intakeKgPerDay float64) (analytics.GrazingPlan, error) {
	observations, err := s.GetVegetationIndex(ctx, area, start, end)
	if err != nil {
		return analytics.GrazingPlan{}, err
	}
	var ndvi float64
	if n := len(observations); n > 0 {
		ndvi = observations[n-1].NDVI
	}
	return analytics.PlanGrazingRotation(ndvi, areaHa, animals, intakeKgPerDay), nil
}

// GetMoistureForecast extrapolates the moisture series over the next
// seven days, optionally nudged by a per-day rainfall forecast in mm.
func (s *Service) GetMoistureForecast(ctx context.Context, lat, lon float64, start, end time.Time, rainfallMM []float64) []analytics.MoisturePrediction {
	series := s.GetSoilMoisture(ctx, lat, lon, start, end)
	return analytics.PredictSoilMoisture(series, rainfallMM)
}

// FieldReportParams carries the numeric inputs of the combined report.
type FieldReportParams struct {
	TargetMoisture float64
	AreaHa         float64
	Animals        int
	IntakeKgPerDay float64
	RainfallMM     []float64
}

// FieldReport is the combined assessment for one field. The moisture
// sections always fill; the pasture section degrades to an explicit
// unavailable marker when the vegetation path fails, mirroring the two
// paths' propagation policies.
type FieldReport struct {
	Moisture           []earthdata.TimeSeriesPoint       `json:"moisture"`
	Drought            analytics.DroughtAssessment       `json:"drought"`
	Irrigation         analytics.IrrigationPlan          `json:"irrigation"`
	Forecast           []analytics.MoisturePrediction    `json:"forecast"`
	Vegetation         []earthdata.VegetationObservation `json:"vegetation,omitempty"`
	Grazing            *analytics.GrazingPlan            `json:"grazing,omitempty"`
	PastureUnavailable string                            `json:"pastureUnavailable,omitempty"`
}

// GetFieldReport fetches the moisture and vegetation series
// concurrently and composes every derived metric into one result.
func (s *Service) GetFieldReport(ctx context.Context, area earthdata.AreaOfInterest, start, end time.Time, params FieldReportParams) FieldReport {
	center := area.Centroid()

	var (
		moisture     []earthdata.TimeSeriesPoint
		observations []earthdata.VegetationObservation
		vegErr       error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		moisture = s.GetSoilMoisture(gctx, center.Lat, center.Lon, start, end)
		return nil
	})
	g.Go(func() error {
		// Vegetation failure degrades the report rather than aborting
		// the moisture half.
		observations, vegErr = s.GetVegetationIndex(gctx, area, start, end)
		return nil
	})
	_ = g.Wait()

	report := FieldReport{
		Moisture: moisture,
		Drought:  analytics.DetectDrought(moisture),
		Forecast: analytics.PredictSoilMoisture(moisture, params.RainfallMM),
	}
	if latest, ok := earthdata.LatestPoint(moisture); ok {
		report.Irrigation = analytics.CalculateIrrigationNeeds(latest.Value, params.TargetMoisture, params.AreaHa, s.rootDepthCM)
	}

	if vegErr != nil {
		s.logger.Warn("field report pasture section unavailable", zap.Error(vegErr))
		report.PastureUnavailable = vegErr.Error()
		return report
	}

	report.Vegetation = observations
	var ndvi float64
	if n := len(observations); n > 0 {
		ndvi = observations[n-1].NDVI
	}
	plan := analytics.PlanGrazingRotation(ndvi, params.AreaHa, params.Animals, params.IntakeKgPerDay)
	report.Grazing = &plan
	return report
}

func (s *Service) readCache(key string) ([]earthdata.TimeSeriesPoint, bool) {
	series, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return series, ok
}

func (s *Service) writeCache(key string, series []earthdata.TimeSeriesPoint) {
	if err := s.store.Put(key, series); err != nil {
		s.logger.Warn("cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// splitVegetation projects observations into the two cacheable index
// series; zipVegetation reassembles them on a cache hit. Dates pair by
// position: both series come from the same rows.
func splitVegetation(observations []earthdata.VegetationObservation) (ndvi, evi []earthdata.TimeSeriesPoint) {
	for _, o := range observations {
		ndvi = append(ndvi, earthdata.TimeSeriesPoint{
			Date: o.Date, Value: o.NDVI, Quality: o.Quality, SourceID: "modis:ndvi",
		})
		evi = append(evi, earthdata.TimeSeriesPoint{
			Date: o.Date, Value: o.EVI, Quality: o.Quality, SourceID: "modis:evi",
		})
	}
	return ndvi, evi
}

func zipVegetation(ndvi, evi []earthdata.TimeSeriesPoint) []earthdata.VegetationObservation {
	observations := make([]earthdata.VegetationObservation, 0, len(ndvi))
	for i, p := range ndvi {
		o := earthdata.VegetationObservation{
			Date: p.Date, NDVI: p.Value, Quality: p.Quality,
		}
		if i < len(evi) {
			o.EVI = evi[i].Value
		}
		observations = append(observations, o)
	}
	return observations
}
