package domain

import "time"

// GroupingKey is the 11-field key that places orders on the same waybill
type GroupingKey struct {
	PlannedShipDate string
	DeliveryDate    string
	CustomerCode    string
	DeliveryInfo1   string
	DeliveryInfo2   string
	DestName1       string
	DestName2       string
	DestPostal      string
	DestAddr1       string
	DestAddr2       string
	DestAddr3       string
}

func (k GroupingKey) fields() [11]string {
	return [11]string{
		k.PlannedShipDate, k.DeliveryDate, k.CustomerCode,
		k.DeliveryInfo1, k.DeliveryInfo2, k.DestName1, k.DestName2,
		k.DestPostal, k.DestAddr1, k.DestAddr2, k.DestAddr3,
	}
}

// Less orders keys field by field
func (k GroupingKey) Less(other GroupingKey) bool {
	a, b := k.fields(), other.fields()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Waybill is one shipment reconstructed from a picking
type Waybill struct {
	ID             string // temporary, WB-<picking>-<n>
	Ref            string // stable reference used to key the selection log
	PickingID      string
	CustomerCode   string
	PrefectureCode string
	RegionCode     string
	PostalCode     string
	ShipDate       time.Time
	DeliveryDate   *time.Time
	Products       []ProductQuantity
	OrderIDs       []string
	WorkRefs       []PickingWorkRef
}
