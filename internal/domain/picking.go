package domain

import "time"

// PickingLine is one product line of a picking
type PickingLine struct {
	PickingID   string
	OrderID     string
	LineNo      int
	ProductCode string
	Quantity    int
}

// PickingWork is one work row of a picking; it carries the carrier chosen for its order
type PickingWork struct {
	PickingID       string
	WorkSeq         int
	OrderID         string
	Carrier         string
	OriginalCarrier string
}

// PickingWorkRef identifies a picking work row
type PickingWorkRef struct {
	PickingID string
	WorkSeq   int
	OrderID   string
}

// Picking is the line and work data of one picking batch
type Picking struct {
	ID    string
	Lines []PickingLine
	Work  []PickingWork
}

// OrderIDs returns the distinct orders referenced by the picking, work rows first
func (p *Picking) OrderIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, w := range p.Work {
		add(w.OrderID)
	}
	for _, l := range p.Lines {
		add(l.OrderID)
	}
	return ids
}

// OrderHeader is the destination and scheduling data of an order
type OrderHeader struct {
	OrderID         string
	CustomerCode    string
	ShipDate        string // raw YYYYMMDD
	DeliveryDate    string // raw YYYYMMDD, empty when there is no deadline
	DeliveryInfo1   string
	DeliveryInfo2   string
	DestName1       string
	DestName2       string
	DestPostal      string
	DestAddr1       string
	DestAddr2       string
	DestAddr3       string
	DestPrefecture  string
	AssignedCarrier string
	OriginalCarrier string
}

// GroupingKey returns the key under which orders share one waybill
func (o OrderHeader) GroupingKey() GroupingKey {
	return GroupingKey{
		PlannedShipDate: o.ShipDate,
		DeliveryDate:    o.DeliveryDate,
		CustomerCode:    o.CustomerCode,
		DeliveryInfo1:   o.DeliveryInfo1,
		DeliveryInfo2:   o.DeliveryInfo2,
		DestName1:       o.DestName1,
		DestName2:       o.DestName2,
		DestPostal:      o.DestPostal,
		DestAddr1:       o.DestAddr1,
		DestAddr2:       o.DestAddr2,
		DestAddr3:       o.DestAddr3,
	}
}

// PickingSummary is one row of the picking browse list
type PickingSummary struct {
	PickingID       string
	PickingDate     string
	CustomerCode    string
	CustomerName    string
	StaffCode       string
	StaffName       string
	OrderCount      int
	UnassignedCount int
	UpdatedAt       time.Time
}

// PickingQuery filters the picking browse list
type PickingQuery struct {
	Skip           int
	Limit          int
	Query          string
	UnassignedOnly bool
	Sentinel       string
}
