package domain

// Dimensions is one outer-box dimension set in centimetres
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
}

// Girth is the parcel size used by carriers: L + W + H
func (d Dimensions) Girth() float64 {
	return d.Length + d.Width + d.Height
}

// Cubic returns the box volume in cubic centimetres
func (d Dimensions) Cubic() float64 {
	return d.Length * d.Width * d.Height
}

// Product holds the packing attributes of an item
type Product struct {
	Code             string
	Name             string
	OuterBoxCapacity int
	SetParcelCount   int
	UnitWeight       float64 // kg
	UnitVolume       float64 // volumetric units, 0 when unknown
	Boxes            []Dimensions
}

// DefaultProduct is used when a product code is missing from the master:
// 1 kg, no volume, one unit per box, one parcel per box, no dimensions.
func DefaultProduct(code string) Product {
	return Product{
		Code:             code,
		OuterBoxCapacity: 1,
		SetParcelCount:   1,
		UnitWeight:       1,
	}
}

func (p Product) capacity() int {
	if p.OuterBoxCapacity < 1 {
		return 1
	}
	return p.OuterBoxCapacity
}

func (p Product) setCount() int {
	if p.SetParcelCount < 1 {
		return 1
	}
	return p.SetParcelCount
}

// MaxGirth is the largest girth across the product's box sets
func (p Product) MaxGirth() float64 {
	var max float64
	for _, b := range p.Boxes {
		if g := b.Girth(); g > max {
			max = g
		}
	}
	return max
}

// ProductQuantity is one product line of a waybill
type ProductQuantity struct {
	Product  Product
	Quantity int
}
