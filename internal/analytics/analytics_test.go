package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

func seriesOf(values ...float64) []earthdata.TimeSeriesPoint {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]earthdata.TimeSeriesPoint, 0, len(values))
	for i, v := range values {
		points = append(points, earthdata.TimeSeriesPoint{
			Date:    base.AddDate(0, 0, i),
			Value:   v,
			Quality: earthdata.QualityMeasured,
		})
	}
	return points
}

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		direction TrendDirection
	}{
		{"steadily rising", []float64{0.10, 0.15, 0.20, 0.25, 0.30}, TrendIncreasing},
		{"steadily falling", []float64{0.30, 0.25, 0.20, 0.15, 0.10}, TrendDecreasing},
		{"flat", []float64{0.20, 0.20, 0.20, 0.20, 0.20}, TrendStable},
		{"tiny wobble", []float64{0.200, 0.201, 0.200, 0.201, 0.200}, TrendStable},
		{"single point", []float64{0.20}, TrendUnknown},
		{"empty", nil, TrendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTrend(seriesOf(tt.values...), DefaultTrendWindow)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}

func TestCalculateTrendUsesRecentWindow(t *testing.T) {
	// Old points fall outside the 5-point window; only the recent
	// decline should count.
	values := []float64{0.10, 0.10, 0.10, 0.30, 0.25, 0.20, 0.15, 0.10}
	got := CalculateTrend(seriesOf(values...), DefaultTrendWindow)
	assert.Equal(t, TrendDecreasing, got.Direction)
	assert.Negative(t, got.SlopePercent)
}

func TestDetectDroughtBands(t *testing.T) {
	tests := []struct {
		avg      float64
		level    DroughtLevel
		severity int
	}{
		{0.05, DroughtExceptional, 5},
		{0.12, DroughtExtreme, 4},
		{0.17, DroughtSevere, 3},
		{0.22, DroughtModerate, 2},
		{0.27, DroughtMild, 1},
		{0.32, DroughtNone, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got := DetectDrought(seriesOf(tt.avg, tt.avg, tt.avg, tt.avg, tt.avg))
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.severity, got.Severity)
			assert.InDelta(t, tt.avg, got.AverageMoisture, 1e-9)
			assert.NotEmpty(t, got.Recommendations)
		})
	}
}

func TestDetectDroughtEmptySeries(t *testing.T) {
	got := DetectDrought(nil)
	assert.Equal(t, DroughtUnknown, got.Level)
	assert.Equal(t, 0, got.Severity)
	require.Len(t, got.Recommendations, 1)
	assert.Contains(t, got.Recommendations[0], "Insufficient data")
}

func TestDetectDroughtTrendAnnotations(t *testing.T) {
	declining := DetectDrought(seriesOf(0.30, 0.27, 0.24, 0.21, 0.18))
	require.NotEmpty(t, declining.Recommendations)
	assert.Contains(t, declining.Recommendations[len(declining.Recommendations)-1], "declining rapidly")

	recovering := DetectDrought(seriesOf(0.18, 0.21, 0.24, 0.27, 0.30))
	require.NotEmpty(t, recovering.Recommendations)
	assert.Contains(t, recovering.Recommendations[len(recovering.Recommendations)-1], "recovering rapidly")
}

func TestCalculateIrrigationNeedsNoDeficit(t *testing.T) {
	plan := CalculateIrrigationNeeds(0.30, 0.30, 1, DefaultRootDepthCM)
	assert.False(t, plan.NeedsIrrigation)
	assert.Zero(t, plan.WaterLiters)
}

func TestCalculateIrrigationNeedsDeficit(t *testing.T) {
	plan := CalculateIrrigationNeeds(0.15, 0.30, 2, DefaultRootDepthCM)
	require.True(t, plan.NeedsIrrigation)
	assert.InDelta(t, 0.15, plan.MoistureDeficit, 1e-9)
	// deficit x 30 cm x 10 = 45 mm; 45 mm x 10000 x 2 ha = 900000 L
	assert.InDelta(t, 45.0, plan.WaterDepthMM, 1e-9)
	assert.InDelta(t, 900000.0, plan.WaterLiters, 1e-6)
}

func TestCalculateGrassBiomass(t *testing.T) {
	assert.Zero(t, CalculateGrassBiomass(0.1))
	assert.InDelta(t, 15000*0.5, CalculateGrassBiomass(0.5), 1e-9)
	// NDVI saturates at 0.8.
	assert.Equal(t, CalculateGrassBiomass(0.8), CalculateGrassBiomass(0.9))
}

func TestPlanGrazingRotation(t *testing.T) {
	plan := PlanGrazingRotation(0.6, 10, 20, 12)
	require.True(t, plan.Limited)
	// biomass 9000 kg/ha x 10 ha x 0.5 = 45000 kg forage; demand 240/day.
	assert.InDelta(t, 45000, plan.AvailableForageKg, 1e-9)
	assert.Equal(t, 187, plan.DaysUntilRotation)
	// 42 x (1-0.6) = 16.8, under the 21 day floor.
	assert.Equal(t, 21, plan.RestPeriodDays)
}

func TestPlanGrazingRotationUnlimitedWithoutStock(t *testing.T) {
	plan := PlanGrazingRotation(0.3, 5, 0, 0)
	assert.False(t, plan.Limited)
	assert.Zero(t, plan.DaysUntilRotation)
	// Rest period still computed: 42 x 0.7 = 29.4 -> 29.
	assert.Equal(t, 29, plan.RestPeriodDays)
}

func TestPredictSoilMoisture(t *testing.T) {
	predictions := PredictSoilMoisture(seriesOf(0.20, 0.22, 0.24, 0.26, 0.28), nil)
	require.Len(t, predictions, ForecastHorizonDays)

	// Linear continuation: +0.02 per day from 0.28.
	assert.InDelta(t, 0.30, predictions[0].Value, 1e-9)
	assert.InDelta(t, 0.42, predictions[6].Value, 1e-9)

	// Confidence decays with horizon.
	assert.Greater(t, predictions[0].Confidence, predictions[6].Confidence)
	for i := 1; i < len(predictions); i++ {
		assert.True(t, predictions[i].Date.After(predictions[i-1].Date))
	}
}

func TestPredictSoilMoistureRainfallNudge(t *testing.T) {
	flat := seriesOf(0.20, 0.20, 0.20, 0.20, 0.20)
	dry := PredictSoilMoisture(flat, nil)
	wet := PredictSoilMoisture(flat, []float64{10, 0, 0, 0, 0, 0, 0})
	require.Len(t, wet, ForecastHorizonDays)
	assert.InDelta(t, dry[0].Value+0.010, wet[0].Value, 1e-9)
	assert.InDelta(t, dry[1].Value, wet[1].Value, 1e-9)
}

func TestPredictSoilMoistureClampsToPlausibleRange(t *testing.T) {
	falling := seriesOf(0.20, 0.15, 0.10, 0.05, 0.00)
	for _, p := range PredictSoilMoisture(falling, nil) {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}
}

func TestPredictSoilMoistureInsufficientData(t *testing.T) {
	assert.Empty(t, PredictSoilMoisture(nil, nil))
	assert.Empty(t, PredictSoilMoisture(seriesOf(0.2), nil))
}
