package client

import "time"

// CarrierEstimate is one carrier's quote for a waybill
type CarrierEstimate struct {
	CarrierCode         string  `json:"carrier_code"`
	CarrierName         string  `json:"carrier_name"`
	ParcelCount         int     `json:"parcel_count"`
	Volume              int     `json:"volume"`
	Weight              float64 `json:"weight"`
	Size                int     `json:"size"`
	Cost                float64 `json:"cost"`
	LeadTime            int     `json:"lead_time"`
	IsCapacityAvailable bool    `json:"is_capacity_available"`
}

// SelectionDetail is the decision taken for one waybill
type SelectionDetail struct {
	WaybillID           string            `json:"waybill_id,omitempty"`
	ParcelCount         int               `json:"parcel_count"`
	Volume              int               `json:"volume"`
	Weight              float64           `json:"weight"`
	Size                int               `json:"size"`
	CarrierEstimates    []CarrierEstimate `json:"carrier_estimates"`
	SelectedCarrierCode string            `json:"selected_carrier_code"`
	SelectedCarrierName string            `json:"selected_carrier_name"`
	SelectionReason     string            `json:"selection_reason"`
}

// SelectionResult is the outcome for one picking
type SelectionResult struct {
	PickingID        string            `json:"picking_id"`
	WaybillCount     int               `json:"waybill_count"`
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	SelectionDetails []SelectionDetail `json:"selection_details"`
}

// BatchResult is the outcome of a synchronous batch
type BatchResult struct {
	Results        []SelectionResult `json:"results"`
	Success        bool              `json:"success"`
	Message        string            `json:"message"`
	FailedPickings []string          `json:"failed_pickings"`
}

// BatchRun identifies a started batch workflow
type BatchRun struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// ListOptions filters the picking browse list
type ListOptions struct {
	Skip           int
	Limit          int
	Query          string
	UnassignedOnly bool
}

// PickingSummary is one row of the picking browse list
type PickingSummary struct {
	PickingID       string     `json:"picking_id"`
	PickingDate     string     `json:"picking_date"`
	CustomerCode    string     `json:"customer_code"`
	CustomerName    string     `json:"customer_name"`
	StaffCode       string     `json:"staff_code"`
	StaffName       string     `json:"staff_name"`
	OrderCount      int        `json:"order_count"`
	UnassignedCount int        `json:"unassigned_count"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// PickingPage is one page of the picking browse list
type PickingPage struct {
	Pickings []PickingSummary `json:"pickings"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
}
