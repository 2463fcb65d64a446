package domain

import "github.com/shopspring/decimal"

// Rejection names why a carrier is not eligible
type Rejection string

// Rejections
const (
	RejectionNone            Rejection = ""
	RejectionCapacity        Rejection = "capacity"
	RejectionSpecialCapacity Rejection = "special_capacity"
	RejectionFee             Rejection = "fee"
	RejectionLeadTime        Rejection = "lead_time"
)

// Err returns the sentinel error behind the rejection, nil for an eligible carrier
func (r Rejection) Err() error {
	switch r {
	case RejectionCapacity, RejectionSpecialCapacity:
		return ErrCapacityExceeded
	case RejectionFee:
		return ErrFeeUndefined
	case RejectionLeadTime:
		return ErrLeadTimeUndefined
	default:
		return nil
	}
}

// CarrierEstimate is one carrier's quote for a waybill
type CarrierEstimate struct {
	Carrier           Carrier
	ParcelCount       int
	Volume            int
	Weight            float64
	Size              int
	Cost              decimal.Decimal
	LeadTime          int
	CapacityAvailable bool
	Eligible          bool
	Rejection         Rejection
}

// EvaluateCarriers estimates every carrier for a waybill destined to area.
// Estimates are returned in carrier code order.
func EvaluateCarriers(rc *ReferenceContext, wb *Waybill, m ShipmentMetrics, areaCode string) []CarrierEstimate {
	estimates := make([]CarrierEstimate, 0, len(rc.Carriers()))
	for _, carrier := range rc.Carriers() {
		estimates = append(estimates, evaluateCarrier(rc, carrier, wb, m, areaCode))
	}
	return estimates
}

func evaluateCarrier(rc *ReferenceContext, carrier Carrier, wb *Waybill, m ShipmentMetrics, areaCode string) CarrierEstimate {
	est := CarrierEstimate{
		Carrier:     carrier,
		ParcelCount: m.ParcelCount,
		Volume:      m.Volume,
		Weight:      m.Weight,
		Size:        m.Size(),
	}

	capacity := CheckCapacity(rc.Capacity(carrier.Code), rc.SpecialCapacity(carrier.Code, wb.ShipDate), m.Volume, m.Weight)
	if !capacity.OK {
		est.Rejection = RejectionCapacity
		if capacity.Failed == CapacityGateSpecial {
			est.Rejection = RejectionSpecialCapacity
		}
		return est
	}
	est.CapacityAvailable = true

	quote, ok := CalculateFee(rc.FeeRules(carrier.Code, areaCode), m)
	if !ok {
		est.Rejection = RejectionFee
		return est
	}
	est.Cost = quote.Fee

	lead, ok := rc.LeadTime(carrier.Code, wb.PrefectureCode, wb.ShipDate)
	if !ok {
		est.Rejection = RejectionLeadTime
		return est
	}
	est.LeadTime = lead
	est.Eligible = true
	return est
}

// Cheapest returns the lowest-cost eligible estimate; ties go to the shorter lead time, then the carrier code
func Cheapest(estimates []CarrierEstimate) (CarrierEstimate, bool) {
	return best(estimates, func(a, b CarrierEstimate) bool {
		if c := a.Cost.Cmp(b.Cost); c != 0 {
			return c < 0
		}
		if a.LeadTime != b.LeadTime {
			return a.LeadTime < b.LeadTime
		}
		return a.Carrier.Code < b.Carrier.Code
	})
}

// Fastest returns the shortest lead-time eligible estimate; ties go to the lower cost, then the carrier code
func Fastest(estimates []CarrierEstimate) (CarrierEstimate, bool) {
	return best(estimates, func(a, b CarrierEstimate) bool {
		if a.LeadTime != b.LeadTime {
			return a.LeadTime < b.LeadTime
		}
		if c := a.Cost.Cmp(b.Cost); c != 0 {
			return c < 0
		}
		return a.Carrier.Code < b.Carrier.Code
	})
}

func best(estimates []CarrierEstimate, less func(a, b CarrierEstimate) bool) (CarrierEstimate, bool) {
	var winner CarrierEstimate
	found := false
	for _, e := range estimates {
		if !e.Eligible {
			continue
		}
		if !found || less(e, winner) {
			winner = e
			found = true
		}
	}
	return winner, found
}
