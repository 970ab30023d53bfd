package analytics

import (
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

type DroughtLevel string

const (
	DroughtNone        DroughtLevel = "none"
	DroughtMild        DroughtLevel = "mild"
	DroughtModerate    DroughtLevel = "moderate"
	DroughtSevere      DroughtLevel = "severe"
	DroughtExtreme     DroughtLevel = "extreme"
	DroughtExceptional DroughtLevel = "exceptional"
	DroughtUnknown     DroughtLevel = "unknown"
)

// Trend slopes past these marks add an extra recommendation line.
const (
	rapidDeclinePercent  = -10.0
	rapidRecoveryPercent = 10.0
)

// DroughtAssessment classifies a moisture series into one of six
// ordered bands. Recomputed per call, never persisted.
type DroughtAssessment struct {
	AverageMoisture float64      `json:"averageMoisture"`
	Level           DroughtLevel `json:"droughtLevel"`
	Severity        int          `json:"severity"`
	TrendPercent    float64      `json:"trendPercent"`
	Recommendations []string     `json:"recommendations"`
}

// droughtBand maps an average-moisture cutoff to its classification.
// Bands are ordered driest first; the first cutoff the average falls
// under wins, and >= 0.30 means no drought.
var droughtBands = []struct {
	below           float64
	level           DroughtLevel
	severity        int
	recommendations []string
}{
	{0.10, DroughtExceptional, 5, []string{
		"Exceptional drought: suspend planting and conserve all stored water",
		"Emergency irrigation only for highest-value crops",
		"Consider destocking livestock ahead of forage collapse",
	}},
	{0.15, DroughtExtreme, 4, []string{
		"Extreme drought: halt new planting until moisture recovers",
		"Ration irrigation to survival levels for established crops",
		"Line up supplemental feed for livestock",
	}},
	{0.20, DroughtSevere, 3, []string{
		"Severe drought: irrigate only drought-tolerant crops",
		"Apply mulch to reduce evaporation losses",
		"Monitor soil moisture daily",
	}},
	{0.25, DroughtModerate, 2, []string{
		"Moderate drought: prioritize irrigation for vulnerable crops",
		"Shift to early-morning watering to cut evaporation",
	}},
	{0.30, DroughtMild, 1, []string{
		"Mild drought: watch moisture closely and pre-position irrigation",
		"Delay moisture-hungry plantings where possible",
	}},
}

var noDroughtRecommendations = []string{
	"Soil moisture adequate: maintain the regular schedule",
}

// DetectDrought averages the moisture series, maps the average onto the
// drought bands and attaches the band's recommendations. A rapidly
// declining trend (worse than -10%) adds a warning line; a rapidly
// improving one (past +10%) adds a recovery note. An empty series gives
// the explicit unknown result rather than an error.
func DetectDrought(series []earthdata.TimeSeriesPoint) DroughtAssessment {
	if len(series) == 0 {
		return DroughtAssessment{
			Level:           DroughtUnknown,
			Recommendations: []string{"Insufficient data to assess drought conditions"},
		}
	}

	avg := earthdata.AverageValue(series)
	trend := CalculateTrend(series, DefaultTrendWindow)

	assessment := DroughtAssessment{
		AverageMoisture: avg,
		Level:           DroughtNone,
		Severity:        0,
		TrendPercent:    trend.SlopePercent,
		Recommendations: noDroughtRecommendations,
	}
	for _, band := range droughtBands {
		if avg < band.below {
			assessment.Level = band.level
			assessment.Severity = band.severity
			assessment.Recommendations = band.recommendations
			break
		}
	}

	// Copy before appending so the canned lists stay untouched.
	recs := make([]string, len(assessment.Recommendations))
	copy(recs, assessment.Recommendations)
	switch {
	case trend.SlopePercent < rapidDeclinePercent:
		recs = append(recs, "Warning: soil moisture is declining rapidly; conditions may worsen soon")
	case trend.SlopePercent > rapidRecoveryPercent:
		recs = append(recs, "Soil moisture is recovering rapidly; restrictions may ease soon")
	}
	assessment.Recommendations = recs

	return assessment
}
