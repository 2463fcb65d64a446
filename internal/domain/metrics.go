package domain

import (
	"math"
	"sort"
)

// Volumetric unit constants: one unit is a cube of VCube cm and weighs VRatio kg
const (
	VCube  = 30.3
	VRatio = 8.0
)

// volumeEpsilon absorbs float noise before rounding a volume up
const volumeEpsilon = 1e-9

// SizeBucket classifies a parcel girth
type SizeBucket string

// Size buckets
const (
	SizeS  SizeBucket = "S"
	SizeM  SizeBucket = "M"
	SizeL  SizeBucket = "L"
	SizeXL SizeBucket = "XL"
)

// BucketFor returns the size bucket of a girth in centimetres
func BucketFor(girth float64) SizeBucket {
	switch {
	case girth <= 60:
		return SizeS
	case girth <= 100:
		return SizeM
	case girth <= 140:
		return SizeL
	default:
		return SizeXL
	}
}

// ParcelSize is one entry of the per-parcel size histogram
type ParcelSize struct {
	Size  int `json:"size"`
	Count int `json:"count"`
}

// LineMetrics is the footprint of a single product line
type LineMetrics struct {
	ProductCode string
	Quantity    int
	Parcels     int
	Volume      float64
	Weight      float64
	Girth       float64
}

// ShipmentMetrics is the physical footprint of a waybill
type ShipmentMetrics struct {
	ParcelCount int
	Volume      int     // ceiling of RawVolume
	RawVolume   float64 // accumulated fractional volumetric units
	Weight      float64
	MaxGirth    float64
	Parcels     []ParcelSize
	Lines       []LineMetrics
}

// IsEmpty reports whether the waybill has nothing to ship
func (m ShipmentMetrics) IsEmpty() bool {
	return m.ParcelCount <= 0 || m.Volume <= 0 || m.Weight <= 0
}

// Bucket returns the size bucket of the largest parcel
func (m ShipmentMetrics) Bucket() SizeBucket {
	return BucketFor(m.MaxGirth)
}

// Size is the largest parcel girth rounded up to whole centimetres
func (m ShipmentMetrics) Size() int {
	return girthSize(m.MaxGirth)
}

// CountParcels returns ⌊q/c⌋·s plus s for a partially filled box
func CountParcels(quantity, capacity, setCount int) int {
	if quantity <= 0 {
		return 0
	}
	if capacity < 1 {
		capacity = 1
	}
	if setCount < 1 {
		setCount = 1
	}
	parcels := (quantity / capacity) * setCount
	if quantity%capacity > 0 {
		parcels += setCount
	}
	return parcels
}

// VolumetricUnits returns the whole number of volumetric units a box occupies
func VolumetricUnits(d Dimensions) float64 {
	cubic := d.Cubic()
	if cubic <= 0 {
		return 0
	}
	return math.Ceil(cubic/math.Pow(VCube, 3) - volumeEpsilon)
}

// CalculateMetrics computes the footprint of a set of product lines
func CalculateMetrics(items []ProductQuantity) ShipmentMetrics {
	var m ShipmentMetrics
	histogram := make(map[int]int)

	for _, item := range items {
		line := lineMetrics(item, histogram)
		m.Lines = append(m.Lines, line)
		m.ParcelCount += line.Parcels
		m.RawVolume += line.Volume
		m.Weight += line.Weight
		if line.Girth > m.MaxGirth {
			m.MaxGirth = line.Girth
		}
	}

	m.RawVolume = math.Max(0, m.RawVolume)
	m.Weight = math.Max(0, m.Weight)
	m.Volume = int(math.Ceil(m.RawVolume - volumeEpsilon))
	if m.Volume < 0 {
		m.Volume = 0
	}

	m.Parcels = make([]ParcelSize, 0, len(histogram))
	for size, count := range histogram {
		m.Parcels = append(m.Parcels, ParcelSize{Size: size, Count: count})
	}
	sort.Slice(m.Parcels, func(i, j int) bool { return m.Parcels[i].Size < m.Parcels[j].Size })

	return m
}

func lineMetrics(item ProductQuantity, histogram map[int]int) LineMetrics {
	p := item.Product
	q := item.Quantity
	line := LineMetrics{ProductCode: p.Code, Quantity: q}
	if q <= 0 {
		return line
	}

	c := p.capacity()
	s := p.setCount()
	complete := q / c
	remainder := q % c

	line.Parcels = CountParcels(q, c, s)
	line.Weight = math.Max(0, p.UnitWeight*float64(q))
	line.Girth = p.MaxGirth()

	// Box 0 describes the outer carton; the partial carton keeps L and W
	// and shrinks H by the fill ratio.
	var full, partial Dimensions
	if len(p.Boxes) > 0 {
		full = p.Boxes[0]
		partial = full
		partial.Height = full.Height * float64(remainder) / float64(c)
	}

	if p.UnitVolume > 0 {
		line.Volume = p.UnitVolume * float64(q)
	} else {
		for i, b := range p.Boxes {
			if i > 0 {
				line.Volume += VolumetricUnits(b) * float64(q)
				continue
			}
			line.Volume += VolumetricUnits(full) * float64(complete)
			if remainder > 0 {
				line.Volume += VolumetricUnits(partial)
			}
		}
	}
	line.Volume = math.Max(0, line.Volume)

	if complete > 0 {
		histogram[girthSize(full.Girth())] += complete * s
	}
	if remainder > 0 {
		histogram[girthSize(partial.Girth())] += s
	}

	return line
}

func girthSize(g float64) int {
	return int(math.Ceil(g - volumeEpsilon))
}
