package application

import (
	"github.com/wms-platform/carrier-selection/internal/domain"
)

// ToCarrierEstimateDTO converts a domain estimate to its DTO
func ToCarrierEstimateDTO(e domain.CarrierEstimate) CarrierEstimateDTO {
	return CarrierEstimateDTO{
		CarrierCode:         e.Carrier.Code,
		CarrierName:         e.Carrier.Name,
		ParcelCount:         e.ParcelCount,
		Volume:              e.Volume,
		Weight:              e.Weight,
		Size:                e.Size,
		Cost:                e.Cost.InexactFloat64(),
		LeadTime:            e.LeadTime,
		IsCapacityAvailable: e.CapacityAvailable,
	}
}

// ToSelectionDetailDTO converts one waybill decision to its DTO
func ToSelectionDetailDTO(wb *domain.Waybill, m domain.ShipmentMetrics, estimates []domain.CarrierEstimate, choice domain.Choice) SelectionDetailDTO {
	dtos := make([]CarrierEstimateDTO, 0, len(estimates))
	for _, e := range estimates {
		dtos = append(dtos, ToCarrierEstimateDTO(e))
	}
	return SelectionDetailDTO{
		WaybillID:           wb.ID,
		ParcelCount:         m.ParcelCount,
		Volume:              m.Volume,
		Weight:              m.Weight,
		Size:                m.Size(),
		CarrierEstimates:    dtos,
		SelectedCarrierCode: choice.Estimate.Carrier.Code,
		SelectedCarrierName: choice.Estimate.Carrier.Name,
		SelectionReason:     choice.Reason,
	}
}

// ToPickingSummaryDTO converts a browse row to its DTO
func ToPickingSummaryDTO(s domain.PickingSummary) PickingSummaryDTO {
	dto := PickingSummaryDTO{
		PickingID:       s.PickingID,
		PickingDate:     s.PickingDate,
		CustomerCode:    s.CustomerCode,
		CustomerName:    s.CustomerName,
		StaffCode:       s.StaffCode,
		StaffName:       s.StaffName,
		OrderCount:      s.OrderCount,
		UnassignedCount: s.UnassignedCount,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		dto.UpdatedAt = &t
	}
	return dto
}
