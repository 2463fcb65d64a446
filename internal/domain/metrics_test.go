package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productA() Product {
	return Product{
		Code:             "A",
		OuterBoxCapacity: 10,
		SetParcelCount:   1,
		UnitWeight:       0.5,
		UnitVolume:       2.5,
		Boxes:            []Dimensions{{Length: 30, Width: 20, Height: 10}},
	}
}

func productB() Product {
	return Product{
		Code:             "B",
		OuterBoxCapacity: 5,
		SetParcelCount:   1,
		UnitWeight:       1.0,
		UnitVolume:       5.0,
		Boxes:            []Dimensions{{Length: 40, Width: 30, Height: 20}},
	}
}

func TestCalculateMetrics_MixedProducts(t *testing.T) {
	m := CalculateMetrics([]ProductQuantity{
		{Product: productA(), Quantity: 15},
		{Product: productB(), Quantity: 8},
	})

	assert.Equal(t, 4, m.ParcelCount)
	assert.Equal(t, 78, m.Volume)
	assert.InDelta(t, 77.5, m.RawVolume, 1e-9)
	assert.InDelta(t, 15.5, m.Weight, 1e-9)
	assert.Equal(t, 90.0, m.MaxGirth)
	assert.Equal(t, SizeM, m.Bucket())
	assert.Equal(t, []ParcelSize{
		{Size: 55, Count: 1},
		{Size: 60, Count: 1},
		{Size: 82, Count: 1},
		{Size: 90, Count: 1},
	}, m.Parcels)

	require.Len(t, m.Lines, 2)
	assert.Equal(t, "A", m.Lines[0].ProductCode)
	assert.Equal(t, 2, m.Lines[0].Parcels)
	assert.Equal(t, 60.0, m.Lines[0].Girth)
	assert.Equal(t, 2, m.Lines[1].Parcels)
	assert.False(t, m.IsEmpty())
}

func TestCountParcels(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		capacity int
		setCount int
		expected int
	}{
		{"exact boxes", 20, 10, 1, 2},
		{"partial box", 21, 10, 1, 3},
		{"less than one box", 3, 10, 1, 1},
		{"set of two", 15, 10, 2, 4},
		{"zero quantity", 0, 10, 1, 0},
		{"zero capacity treated as one", 3, 0, 1, 3},
		{"zero set count treated as one", 3, 2, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountParcels(tt.quantity, tt.capacity, tt.setCount))
		})
	}
}

func TestCountParcels_Formula(t *testing.T) {
	for c := 1; c <= 12; c++ {
		for s := 1; s <= 3; s++ {
			for q := 0; q <= 50; q++ {
				expected := (q / c) * s
				if q%c > 0 {
					expected += s
				}
				require.Equal(t, expected, CountParcels(q, c, s), "q=%d c=%d s=%d", q, c, s)
			}
		}
	}
}

func TestVolumetricUnits(t *testing.T) {
	tests := []struct {
		name     string
		dims     Dimensions
		expected float64
	}{
		{"small box rounds up", Dimensions{30, 20, 10}, 1},
		{"exact unit cube", Dimensions{VCube, VCube, VCube}, 1},
		{"just over one unit", Dimensions{31, 31, 31}, 2},
		{"no dimensions", Dimensions{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VolumetricUnits(tt.dims))
		})
	}
}

func TestCalculateMetrics_BoxVolume(t *testing.T) {
	p := productA()
	p.UnitVolume = 0

	m := CalculateMetrics([]ProductQuantity{{Product: p, Quantity: 15}})
	assert.Equal(t, 2, m.Volume)
	assert.Equal(t, 2, m.ParcelCount)

	p.OuterBoxCapacity = 1
	p.Boxes = append(p.Boxes, Dimensions{Length: 10, Width: 10, Height: 10})
	m = CalculateMetrics([]ProductQuantity{{Product: p, Quantity: 3}})
	assert.Equal(t, 6, m.Volume)
	assert.Equal(t, []ParcelSize{{Size: 60, Count: 3}}, m.Parcels)
}

func TestCalculateMetrics_SetParcelCountMultipliesHistogram(t *testing.T) {
	p := productA()
	p.SetParcelCount = 2

	m := CalculateMetrics([]ProductQuantity{{Product: p, Quantity: 15}})
	assert.Equal(t, 4, m.ParcelCount)
	assert.Equal(t, []ParcelSize{{Size: 55, Count: 2}, {Size: 60, Count: 2}}, m.Parcels)
}

func TestCalculateMetrics_DefaultProduct(t *testing.T) {
	m := CalculateMetrics([]ProductQuantity{{Product: DefaultProduct("X"), Quantity: 3}})

	assert.Equal(t, 3, m.ParcelCount)
	assert.Equal(t, 0, m.Volume)
	assert.Equal(t, 3.0, m.Weight)
	assert.True(t, m.IsEmpty())
}

func TestCalculateMetrics_ClampsNegatives(t *testing.T) {
	p := productA()
	p.UnitWeight = -1
	p.UnitVolume = -2
	p.Boxes = nil

	m := CalculateMetrics([]ProductQuantity{{Product: p, Quantity: 4}})
	assert.Equal(t, 0.0, m.Weight)
	assert.Equal(t, 0, m.Volume)
	assert.True(t, m.IsEmpty())
}

func TestCalculateMetrics_Monotonic(t *testing.T) {
	a := productA()
	b := productB()
	b.UnitVolume = 0

	prev := CalculateMetrics(nil)
	for q := 1; q <= 40; q++ {
		m := CalculateMetrics([]ProductQuantity{
			{Product: a, Quantity: q},
			{Product: b, Quantity: q},
		})
		require.GreaterOrEqual(t, m.Volume, prev.Volume, "volume decreased at q=%d", q)
		require.GreaterOrEqual(t, m.Weight, prev.Weight, "weight decreased at q=%d", q)
		prev = m
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, SizeS, BucketFor(60))
	assert.Equal(t, SizeM, BucketFor(60.5))
	assert.Equal(t, SizeM, BucketFor(100))
	assert.Equal(t, SizeL, BucketFor(140))
	assert.Equal(t, SizeXL, BucketFor(141))
}
