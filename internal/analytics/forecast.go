package analytics

import (
	"time"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

const (
	// ForecastHorizonDays is how far ahead moisture is extrapolated.
	ForecastHorizonDays = 7

	// Empirical nudge: each forecast millimetre of rain adds this much
	// volumetric moisture to that day's prediction.
	moisturePerMMRain = 0.001

	// Confidence starts here on day one and decays linearly with the
	// horizon.
	baseConfidence  = 0.90
	confidenceDecay = 0.10
)

// MoisturePrediction is one day of the short-horizon forecast.
type MoisturePrediction struct {
	Date       time.Time `json:"date"`
	Value      float64   `json:"value"`
	Confidence float64   `json:"confidence"`
}

// PredictSoilMoisture extrapolates the recent regression line over the
// next seven days. When a rainfall forecast is supplied, day i's
// prediction is nudged up by 0.001 per forecast millimetre. Predicted
// values are clamped to the physically plausible [0,1] range and
// confidence decays with the horizon. Fewer than two points is an
// insufficient-data case and yields no predictions.
func PredictSoilMoisture(series []earthdata.TimeSeriesPoint, rainfallMM []float64) []MoisturePrediction {
	if len(series) < 2 {
		return nil
	}

	window := series
	if len(window) > DefaultTrendWindow {
		window = window[len(window)-DefaultTrendWindow:]
	}

	// Same least-squares fit the trend classifier uses, kept in value
	// units here rather than percent.
	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range window {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	lastDate := earthdata.DayUTC(series[len(series)-1].Date)

	predictions := make([]MoisturePrediction, 0, ForecastHorizonDays)
	for day := 1; day <= ForecastHorizonDays; day++ {
		value := intercept + slope*(n-1+float64(day))
		if day-1 < len(rainfallMM) {
			value += rainfallMM[day-1] * moisturePerMMRain
		}

		confidence := baseConfidence - confidenceDecay*float64(day-1)
		if confidence < 0 {
			confidence = 0
		}

		predictions = append(predictions, MoisturePrediction{
			Date:       lastDate.AddDate(0, 0, day),
			Value:      earthdata.ClampValue(value, 0, 1),
			Confidence: confidence,
		})
	}
	return predictions
}
