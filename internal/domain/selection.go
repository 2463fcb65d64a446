package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SelectionLogLine is the per-product footprint kept with a selection log
type SelectionLogLine struct {
	ProductCode string
	Girth       float64
	BoxCount    int
}

// CarrierSelection is the decision for one waybill, ready to persist
type CarrierSelection struct {
	WaybillRef      string
	PickingID       string
	CustomerCode    string
	ShipDate        time.Time
	ParcelCount     int
	Volume          int
	Weight          float64
	CheapestCarrier string
	CarrierCode     string
	Rule            RuleName
	Reason          string
	Fee             decimal.Decimal
	LeadTime        int
	Lines           []SelectionLogLine
	OrderIDs        []string
	WorkRefs        []PickingWorkRef
}

// NewCarrierSelection builds the persisted record from a waybill decision
func NewCarrierSelection(wb *Waybill, m ShipmentMetrics, choice Choice, cheapest string) *CarrierSelection {
	lines := make([]SelectionLogLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, SelectionLogLine{ProductCode: l.ProductCode, Girth: l.Girth, BoxCount: l.Parcels})
	}
	return &CarrierSelection{
		WaybillRef:      wb.Ref,
		PickingID:       wb.PickingID,
		CustomerCode:    wb.CustomerCode,
		ShipDate:        wb.ShipDate,
		ParcelCount:     m.ParcelCount,
		Volume:          m.Volume,
		Weight:          m.Weight,
		CheapestCarrier: cheapest,
		CarrierCode:     choice.Estimate.Carrier.Code,
		Rule:            choice.Rule,
		Reason:          choice.Reason,
		Fee:             choice.Estimate.Cost,
		LeadTime:        choice.Estimate.LeadTime,
		Lines:           lines,
		OrderIDs:        wb.OrderIDs,
		WorkRefs:        wb.WorkRefs,
	}
}

// SelectionResult reports what persisting a selection changed
type SelectionResult struct {
	LogID         string
	LogCreated    bool
	OrdersChanged int
	WorkChanged   int
	EventQueued   bool
}
