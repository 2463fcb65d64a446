package application

import "time"

// SelectCarriersRequest is the body of POST /api/carrier-selection/select
type SelectCarriersRequest struct {
	PickingID string `json:"picking_id" binding:"required,picking_id"`
}

// BatchSelectRequest is the body of the batch-select endpoints
type BatchSelectRequest struct {
	PickingIDs []string `json:"picking_ids" binding:"required,min=1,max=500,dive,picking_id"`
}

// CarrierEstimateDTO is one carrier's quote for a waybill
type CarrierEstimateDTO struct {
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

// SelectionDetailDTO is the decision for one waybill
type SelectionDetailDTO struct {
	WaybillID           string               `json:"waybill_id,omitempty"`
	ParcelCount         int                  `json:"parcel_count"`
	Volume              int                  `json:"volume"`
	Weight              float64              `json:"weight"`
	Size                int                  `json:"size"`
	CarrierEstimates    []CarrierEstimateDTO `json:"carrier_estimates"`
	SelectedCarrierCode string               `json:"selected_carrier_code"`
	SelectedCarrierName string               `json:"selected_carrier_name"`
	SelectionReason     string               `json:"selection_reason"`
}

// CarrierSelectionResponse is the outcome of selecting carriers for one picking
type CarrierSelectionResponse struct {
	PickingID        string               `json:"picking_id"`
	WaybillCount     int                  `json:"waybill_count"`
	Success          bool                 `json:"success"`
	Message          string               `json:"message,omitempty"`
	SelectionDetails []SelectionDetailDTO `json:"selection_details"`
}

// BatchCarrierSelectionResponse aggregates the per-picking results of a batch
type BatchCarrierSelectionResponse struct {
	Results        []CarrierSelectionResponse `json:"results"`
	Success        bool                       `json:"success"`
	Message        string                     `json:"message"`
	FailedPickings []string                   `json:"failed_pickings"`
}

// WaybillCount sums the waybills of every result
func (r *BatchCarrierSelectionResponse) WaybillCount() int {
	n := 0
	for _, res := range r.Results {
		n += res.WaybillCount
	}
	return n
}

// PickingSummaryDTO is one row of the picking browse list
type PickingSummaryDTO struct {
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

// PickingListResponse is one page of the picking browse list
type PickingListResponse struct {
	Pickings []PickingSummaryDTO `json:"pickings"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	Size     int                 `json:"size"`
}

// AsyncBatchResponse identifies a started batch workflow
type AsyncBatchResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}
