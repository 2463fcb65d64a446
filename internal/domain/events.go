package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// CarrierSelectedEvent is published when a waybill's carrier changes
type CarrierSelectedEvent struct {
	LogID           string    `json:"logId"`
	WaybillRef      string    `json:"waybillRef"`
	PickingID       string    `json:"pickingId"`
	CustomerCode    string    `json:"customerCode"`
	CarrierCode     string    `json:"carrierCode"`
	CheapestCarrier string    `json:"cheapestCarrier"`
	Rule            string    `json:"rule"`
	Reason          string    `json:"reason"`
	Fee             string    `json:"fee"`
	LeadTimeDays    int       `json:"leadTimeDays"`
	ParcelCount     int       `json:"parcelCount"`
	Volume          int       `json:"volume"`
	Weight          float64   `json:"weight"`
	OrderIDs        []string  `json:"orderIds"`
	ShipDate        string    `json:"shipDate"`
	SelectedAt      time.Time `json:"selectedAt"`
}

func (e *CarrierSelectedEvent) EventType() string     { return "wms.shipping.carrier-selected" }
func (e *CarrierSelectedEvent) OccurredAt() time.Time { return e.SelectedAt }

// NewCarrierSelectedEvent creates the event for a persisted selection
func NewCarrierSelectedEvent(s *CarrierSelection, logID string, at time.Time) *CarrierSelectedEvent {
	return &CarrierSelectedEvent{
		LogID:           logID,
		WaybillRef:      s.WaybillRef,
		PickingID:       s.PickingID,
		CustomerCode:    s.CustomerCode,
		CarrierCode:     s.CarrierCode,
		CheapestCarrier: s.CheapestCarrier,
		Rule:            string(s.Rule),
		Reason:          s.Reason,
		Fee:             s.Fee.String(),
		LeadTimeDays:    s.LeadTime,
		ParcelCount:     s.ParcelCount,
		Volume:          s.Volume,
		Weight:          s.Weight,
		OrderIDs:        s.OrderIDs,
		ShipDate:        DateKey(s.ShipDate),
		SelectedAt:      at,
	}
}
