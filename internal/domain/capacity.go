package domain

import "time"

// Capacity is a carrier's general daily limit. Zero limits are unbounded.
type Capacity struct {
	CarrierCode         string
	LimitVolume         float64
	LimitWeight         float64
	VolumeToWeightRatio float64
}

// SpecialCapacity overrides a carrier's limits on one ship date
type SpecialCapacity struct {
	CarrierCode string
	Date        time.Time
	LimitVolume float64
	LimitWeight float64
}

// CapacityGate names the check that rejected a shipment
type CapacityGate string

// Capacity gates
const (
	CapacityGateNone    CapacityGate = ""
	CapacityGateGeneral CapacityGate = "general"
	CapacityGateSpecial CapacityGate = "special"
)

// CapacityResult is the outcome of both capacity gates
type CapacityResult struct {
	OK     bool
	Failed CapacityGate
}

// CheckCapacity applies the general and the date-specific gate.
// A nil record places no constraint.
func CheckCapacity(general *Capacity, special *SpecialCapacity, volume int, weight float64) CapacityResult {
	if general != nil && !general.admits(volume, weight) {
		return CapacityResult{Failed: CapacityGateGeneral}
	}
	if special != nil && !(within(special.LimitVolume, float64(volume)) && within(special.LimitWeight, weight)) {
		return CapacityResult{Failed: CapacityGateSpecial}
	}
	return CapacityResult{OK: true}
}

func (c *Capacity) admits(volume int, weight float64) bool {
	if !within(c.LimitVolume, float64(volume)) || !within(c.LimitWeight, weight) {
		return false
	}
	if c.VolumeToWeightRatio > 0 && c.LimitWeight > 0 {
		return float64(volume)*c.VolumeToWeightRatio <= c.LimitWeight
	}
	return true
}
