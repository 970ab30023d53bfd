package analytics

// DefaultRootDepthCM is the assumed root depth used to turn a moisture
// deficit into a water depth. Inherited from the original system,
// unverified, deliberately configuration rather than derivation.
const DefaultRootDepthCM = 30.0

// IrrigationPlan is the water volume required to bring current soil
// moisture up to the target. Derived per call, not cached.
type IrrigationPlan struct {
	NeedsIrrigation bool    `json:"needsIrrigation"`
	MoistureDeficit float64 `json:"moistureDeficit"`
	WaterDepthMM    float64 `json:"waterDepthMm"`
	WaterLiters     float64 `json:"waterLiters"`
}

// CalculateIrrigationNeeds converts a volumetric moisture deficit into
// a required water volume: depth_mm = deficit x rootDepthCM x 10 and
// liters = depth_mm x 10000 x areaHa (1 mm over 1 ha is 10 m3). When
// current moisture meets the target the plan is a no-op with zero
// water.
func CalculateIrrigationNeeds(current, target, areaHa, rootDepthCM float64) IrrigationPlan {
	deficit := target - current
	if deficit <= 0 {
		return IrrigationPlan{}
	}

	depthMM := deficit * rootDepthCM * 10
	return IrrigationPlan{
		NeedsIrrigation: true,
		MoistureDeficit: deficit,
		WaterDepthMM:    depthMM,
		WaterLiters:     depthMM * 10000 * areaHa,
	}
}
