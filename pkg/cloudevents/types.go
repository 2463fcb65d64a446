package cloudevents

import (
	"time"
)

// Event types emitted by the carrier-selection service
const (
	CarrierSelected       = "wms.shipping.carrier-selected"
	CarrierSelectionBatch = "wms.shipping.carrier-selection-completed"
)

// SourceCarrierSelection is the CloudEvents source of this service
const SourceCarrierSelection = "/wms/carrier-selection-service"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
}

// CarrierSelectedData is the payload of a CarrierSelected event
type CarrierSelectedData struct {
	LogID           string   `json:"logId"`
	WaybillRef      string   `json:"waybillRef"`
	PickingID       string   `json:"pickingId"`
	CustomerCode    string   `json:"customerCode"`
	CarrierCode     string   `json:"carrierCode"`
	CheapestCarrier string   `json:"cheapestCarrier"`
	Rule            string   `json:"rule"`
	Reason          string   `json:"reason"`
	Fee             string   `json:"fee"`
	LeadTimeDays    int      `json:"leadTimeDays"`
	ParcelCount     int      `json:"parcelCount"`
	Volume          int      `json:"volume"`
	Weight          float64  `json:"weight"`
	OrderIDs        []string `json:"orderIds"`
	ShipDate        string   `json:"shipDate"`
}

// CarrierSelectionBatchData summarises one batch run
type CarrierSelectionBatchData struct {
	PickingIDs     []string `json:"pickingIds"`
	FailedPickings []string `json:"failedPickings"`
	Success        bool     `json:"success"`
	WaybillCount   int      `json:"waybillCount"`
}
