package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckCapacity(t *testing.T) {
	shipDate := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		general  *Capacity
		special  *SpecialCapacity
		volume   int
		weight   float64
		expected CapacityResult
	}{
		{"no records is unlimited", nil, nil, 1000, 5000, CapacityResult{OK: true}},
		{"within general limits", &Capacity{LimitVolume: 100, LimitWeight: 800}, nil, 100, 800, CapacityResult{OK: true}},
		{"volume over limit", &Capacity{LimitVolume: 100}, nil, 101, 10, CapacityResult{Failed: CapacityGateGeneral}},
		{"weight over limit", &Capacity{LimitWeight: 50}, nil, 1, 50.5, CapacityResult{Failed: CapacityGateGeneral}},
		{"converted volume over weight limit", &Capacity{LimitWeight: 80, VolumeToWeightRatio: VRatio}, nil, 11, 10, CapacityResult{Failed: CapacityGateGeneral}},
		{"converted volume within weight limit", &Capacity{LimitWeight: 80, VolumeToWeightRatio: VRatio}, nil, 10, 10, CapacityResult{OK: true}},
		{"special limit rejects", &Capacity{LimitVolume: 100}, &SpecialCapacity{Date: shipDate, LimitVolume: 20}, 30, 10, CapacityResult{Failed: CapacityGateSpecial}},
		{"special limit admits", nil, &SpecialCapacity{Date: shipDate, LimitVolume: 20, LimitWeight: 100}, 20, 100, CapacityResult{OK: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CheckCapacity(tt.general, tt.special, tt.volume, tt.weight))
		})
	}
}
