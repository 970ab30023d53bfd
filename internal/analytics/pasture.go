package analytics

import "math"

const (
	// Linear NDVI-to-biomass model bounds: below the lower bound the
	// pasture is effectively bare, above the upper bound greenness
	// saturates.
	biomassNDVIFloor = 0.2
	biomassNDVICeil  = 0.8
	biomassScaleKgHa = 15000.0

	// Grazing removes about half the standing forage before regrowth
	// suffers.
	forageUtilization = 0.5

	// Rest period bounds: healthier pasture recovers faster, but never
	// schedule a return inside three weeks.
	minRestDays      = 21
	restSpanDays     = 42.0
	maxRotationYears = 365
)

// GrazingPlan schedules a rotation for a pasture: how long the current
// paddock lasts at the given stocking, and how long it must rest after.
type GrazingPlan struct {
	BiomassKgPerHa    float64 `json:"biomassKgPerHa"`
	AvailableForageKg float64 `json:"availableForageKg"`
	DaysUntilRotation int     `json:"daysUntilRotation"`
	RestPeriodDays    int     `json:"restPeriodDays"`
	// Limited is false when stocking inputs are zero: the forage does
	// not bound the rotation and DaysUntilRotation is meaningless.
	Limited bool `json:"limited"`
}

// CalculateGrassBiomass estimates standing forage (kg/ha) from NDVI.
// NDVI below 0.2 counts as bare ground; above 0.8 the index saturates
// and biomass is clamped to the 0.8 value.
func CalculateGrassBiomass(ndvi float64) float64 {
	if ndvi < biomassNDVIFloor {
		return 0
	}
	return biomassScaleKgHa * math.Min(ndvi, biomassNDVICeil)
}

// PlanGrazingRotation derives a rotation schedule. Available forage is
// biomass x area x the 50% utilization factor; dividing by daily herd
// intake gives days until the paddock is spent. The rest period shrinks
// as NDVI rises but never drops under 21 days. Zero animals or intake
// makes the rotation unlimited; the rest period is still computed.
func PlanGrazingRotation(ndvi, areaHa float64, animals int, intakeKgPerDay float64) GrazingPlan {
	biomass := CalculateGrassBiomass(ndvi)
	forage := biomass * areaHa * forageUtilization

	rest := int(math.Round(restSpanDays * (1 - ndvi)))
	if rest < minRestDays {
		rest = minRestDays
	}

	plan := GrazingPlan{
		BiomassKgPerHa:    biomass,
		AvailableForageKg: forage,
		RestPeriodDays:    rest,
	}

	dailyDemand := float64(animals) * intakeKgPerDay
	if dailyDemand <= 0 {
		return plan
	}

	plan.Limited = true
	days := forage / dailyDemand
	if days < 0 {
		days = 0
	}
	if days > maxRotationYears {
		days = maxRotationYears
	}
	plan.DaysUntilRotation = int(math.Floor(days))
	return plan
}
