package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeType selects how a fee rule prices a shipment
type FeeType string

// Fee types
const (
	FeeTypeFixed     FeeType = "FIXED"
	FeeTypePerVolume FeeType = "PER_VOLUME"
	FeeTypePerParcel FeeType = "PER_PARCEL"
)

// IsValid checks if the fee type is known
func (t FeeType) IsValid() bool {
	switch t {
	case FeeTypeFixed, FeeTypePerVolume, FeeTypePerParcel:
		return true
	}
	return false
}

// ParseFeeType accepts the stored fee type names and the legacy numeric codes
func ParseFeeType(s string) (FeeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIXED", "0", "":
		return FeeTypeFixed, nil
	case "PER_VOLUME", "1":
		return FeeTypePerVolume, nil
	case "PER_PARCEL", "2":
		return FeeTypePerParcel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFeeType, s)
}

// FeeRule is one row of a carrier's rate card for an area.
// A zero bound means the dimension is unbounded.
type FeeRule struct {
	CarrierCode    string
	AreaCode       string
	MaxWeight      float64
	MaxVolume      float64
	MaxSize        float64
	BaseFee        decimal.Decimal
	UnitPrice      decimal.Decimal
	VolumeDiscount decimal.Decimal
	FeeType        FeeType
}

// BoundedCount is the number of dimensions the rule constrains
func (r FeeRule) BoundedCount() int {
	n := 0
	for _, v := range []float64{r.MaxWeight, r.MaxVolume, r.MaxSize} {
		if v > 0 {
			n++
		}
	}
	return n
}

// Admits reports whether the rule covers a shipment of the given footprint
func (r FeeRule) Admits(weight float64, volume int, size float64) bool {
	return within(r.MaxWeight, weight) && within(r.MaxVolume, float64(volume)) && within(r.MaxSize, size)
}

func within(limit, value float64) bool {
	return limit <= 0 || limit >= value
}

// moreSpecific orders rules: more bounded dimensions first, then the tighter
// size bound (unbounded last), then the lower base fee.
func moreSpecific(a, b FeeRule) bool {
	if a.BoundedCount() != b.BoundedCount() {
		return a.BoundedCount() > b.BoundedCount()
	}
	if a.MaxSize != b.MaxSize {
		switch {
		case a.MaxSize <= 0:
			return false
		case b.MaxSize <= 0:
			return true
		default:
			return a.MaxSize < b.MaxSize
		}
	}
	return a.BaseFee.LessThan(b.BaseFee)
}

func mostSpecific(rules []FeeRule, admits func(FeeRule) bool) (FeeRule, bool) {
	candidates := make([]FeeRule, 0, len(rules))
	for _, r := range rules {
		if admits(r) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return FeeRule{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return moreSpecific(candidates[i], candidates[j]) })
	return candidates[0], true
}

// FeeQuote is the priced result of the fee engine
type FeeQuote struct {
	Fee  decimal.Decimal
	Rule FeeRule
}

// CalculateFee prices a shipment against one carrier's rules for the destination area.
// It returns false when no rule applies or the resulting fee is not positive.
func CalculateFee(rules []FeeRule, m ShipmentMetrics) (FeeQuote, bool) {
	rule, ok := mostSpecific(rules, func(r FeeRule) bool {
		return r.Admits(m.Weight, m.Volume, m.MaxGirth)
	})
	if !ok {
		return FeeQuote{}, false
	}

	var fee decimal.Decimal
	switch rule.FeeType {
	case FeeTypePerVolume:
		fee = rule.BaseFee
		if rule.UnitPrice.IsPositive() {
			excess := decimal.NewFromInt(int64(m.Volume)).Sub(rule.VolumeDiscount)
			if excess.IsPositive() {
				fee = fee.Add(excess.Mul(rule.UnitPrice))
			}
		}
	case FeeTypePerParcel:
		fee, ok = perParcelFee(rules, m.Parcels)
		if !ok {
			return FeeQuote{}, false
		}
	default:
		fee = rule.BaseFee
	}

	if !fee.IsPositive() {
		return FeeQuote{}, false
	}
	return FeeQuote{Fee: fee, Rule: rule}, true
}

// perParcelFee prices every histogram entry with the tightest size bucket that fits it
func perParcelFee(rules []FeeRule, parcels []ParcelSize) (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, p := range parcels {
		if p.Count <= 0 {
			continue
		}
		size := float64(p.Size)
		rule, ok := mostSpecific(rules, func(r FeeRule) bool {
			return r.FeeType == FeeTypePerParcel && within(r.MaxSize, size)
		})
		if !ok {
			return decimal.Zero, false
		}
		total = total.Add(rule.BaseFee.Mul(decimal.NewFromInt(int64(p.Count))))
	}
	return total, true
}
