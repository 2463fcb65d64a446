package sqlstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

// Legacy column names are pinned here and in the SQL of this package only.

type carrierRow struct {
	Code string `db:"hanm001001"`
	Name string `db:"hanm001002"`
}

func (r carrierRow) toDomain() domain.Carrier {
	return domain.Carrier{Code: domain.NormalizeCarrierCode(r.Code), Name: strings.TrimSpace(r.Name)}
}

type productRow struct {
	Code             string  `db:"hanm002001"`
	Name             string  `db:"hanm002002"`
	OuterBoxCapacity int     `db:"hanm002003"`
	SetParcelCount   int     `db:"hanm002004"`
	UnitWeight       float64 `db:"hanm002005"`
	UnitVolume       float64 `db:"hanm002006"`
}

func (r productRow) toDomain(boxes []domain.Dimensions) domain.Product {
	return domain.Product{
		Code:             r.Code,
		Name:             strings.TrimSpace(r.Name),
		OuterBoxCapacity: r.OuterBoxCapacity,
		SetParcelCount:   r.SetParcelCount,
		UnitWeight:       r.UnitWeight,
		UnitVolume:       r.UnitVolume,
		Boxes:            boxes,
	}
}

type boxRow struct {
	ProductCode string  `db:"hanm003001"`
	Seq         int     `db:"hanm003002"`
	Length      float64 `db:"hanm003003"`
	Width       float64 `db:"hanm003004"`
	Height      float64 `db:"hanm003005"`
}

type postalRow struct {
	PostalCode string `db:"hanm004001"`
	RegionCode string `db:"hanm004002"`
}

type areaRow struct {
	RegionCode string `db:"hanm005001"`
	AreaCode   string `db:"hanm005002"`
}

type branchRow struct {
	CarrierCode string        `db:"hanm006001"`
	ShipOrigin  string        `db:"hanm006002"`
	Prefecture  string        `db:"hanm006003"`
	LeadTime    sql.NullInt64 `db:"hanm006004"`
}

func (r branchRow) toDomain() domain.CarrierBranch {
	return domain.CarrierBranch{
		CarrierCode:         domain.NormalizeCarrierCode(r.CarrierCode),
		ShipOrigin:          strings.TrimSpace(r.ShipOrigin),
		PrefectureCode:      strings.TrimSpace(r.Prefecture),
		StandardLeadTime:    int(r.LeadTime.Int64),
		HasStandardLeadTime: r.LeadTime.Valid,
	}
}

type feeRuleRow struct {
	CarrierCode    string          `db:"hanm007001"`
	AreaCode       string          `db:"hanm007002"`
	MaxWeight      float64         `db:"hanm007003"`
	MaxVolume      float64         `db:"hanm007004"`
	MaxSize        float64         `db:"hanm007005"`
	BaseFee        decimal.Decimal `db:"hanm007006"`
	UnitPrice      decimal.Decimal `db:"hanm007007"`
	VolumeDiscount decimal.Decimal `db:"hanm007008"`
	FeeType        string          `db:"hanm007009"`
}

func (r feeRuleRow) toDomain() (domain.FeeRule, error) {
	feeType, err := domain.ParseFeeType(r.FeeType)
	if err != nil {
		return domain.FeeRule{}, err
	}
	return domain.FeeRule{
		CarrierCode:    domain.NormalizeCarrierCode(r.CarrierCode),
		AreaCode:       strings.TrimSpace(r.AreaCode),
		MaxWeight:      r.MaxWeight,
		MaxVolume:      r.MaxVolume,
		MaxSize:        r.MaxSize,
		BaseFee:        r.BaseFee,
		UnitPrice:      r.UnitPrice,
		VolumeDiscount: r.VolumeDiscount,
		FeeType:        feeType,
	}, nil
}

type capacityRow struct {
	CarrierCode string  `db:"hanm008001"`
	LimitVolume float64 `db:"hanm008002"`
	LimitWeight float64 `db:"hanm008003"`
	Ratio       float64 `db:"hanm008004"`
}

func (r capacityRow) toDomain() domain.Capacity {
	return domain.Capacity{
		CarrierCode:         domain.NormalizeCarrierCode(r.CarrierCode),
		LimitVolume:         r.LimitVolume,
		LimitWeight:         r.LimitWeight,
		VolumeToWeightRatio: r.Ratio,
	}
}

type specialCapacityRow struct {
	CarrierCode string  `db:"hanm009001"`
	Date        string  `db:"hanm009002"`
	LimitVolume float64 `db:"hanm009003"`
	LimitWeight float64 `db:"hanm009004"`
}

type holidayRow struct {
	CarrierCode  string `db:"hanm010001"`
	Date         string `db:"hanm010002"`
	DeliveryMode int    `db:"hanm010003"`
}

type specialLeadTimeRow struct {
	CarrierCode  string `db:"hanm011001"`
	Prefecture   string `db:"hanm011002"`
	ShipDate     string `db:"hanm011003"`
	DeliveryDate string `db:"hanm011004"`
}

type orderRow struct {
	OrderID         string         `db:"hant001001"`
	CustomerCode    string         `db:"hant001002"`
	ShipDate        string         `db:"hant001003"`
	DeliveryDate    string         `db:"hant001004"`
	DeliveryInfo1   string         `db:"hant001005"`
	DeliveryInfo2   string         `db:"hant001006"`
	DestName1       string         `db:"hant001007"`
	DestName2       string         `db:"hant001008"`
	DestPostal      string         `db:"hant001009"`
	DestAddr1       string         `db:"hant001010"`
	DestAddr2       string         `db:"hant001011"`
	DestAddr3       string         `db:"hant001012"`
	DestPrefecture  string         `db:"hant001013"`
	Carrier         sql.NullString `db:"hant001014"`
	OriginalCarrier sql.NullString `db:"hant001015"`
}

func (r orderRow) toDomain() domain.OrderHeader {
	return domain.OrderHeader{
		OrderID:         r.OrderID,
		CustomerCode:    strings.TrimSpace(r.CustomerCode),
		ShipDate:        strings.TrimSpace(r.ShipDate),
		DeliveryDate:    strings.TrimSpace(r.DeliveryDate),
		DeliveryInfo1:   r.DeliveryInfo1,
		DeliveryInfo2:   r.DeliveryInfo2,
		DestName1:       r.DestName1,
		DestName2:       r.DestName2,
		DestPostal:      r.DestPostal,
		DestAddr1:       r.DestAddr1,
		DestAddr2:       r.DestAddr2,
		DestAddr3:       r.DestAddr3,
		DestPrefecture:  strings.TrimSpace(r.DestPrefecture),
		AssignedCarrier: domain.NormalizeCarrierCode(r.Carrier.String),
		OriginalCarrier: domain.NormalizeCarrierCode(r.OriginalCarrier.String),
	}
}

type pickingLineRow struct {
	PickingID   string `db:"hant011001"`
	OrderID     string `db:"hant011002"`
	LineNo      int    `db:"hant011003"`
	ProductCode string `db:"hant011004"`
	Quantity    int    `db:"hant011005"`
}

func (r pickingLineRow) toDomain() domain.PickingLine {
	return domain.PickingLine{
		PickingID:   r.PickingID,
		OrderID:     r.OrderID,
		LineNo:      r.LineNo,
		ProductCode: strings.TrimSpace(r.ProductCode),
		Quantity:    r.Quantity,
	}
}

type pickingWorkRow struct {
	PickingID       string         `db:"hant012001"`
	WorkSeq         int            `db:"hant012002"`
	OrderID         string         `db:"hant012003"`
	OriginalCarrier sql.NullString `db:"hant012004"`
	Carrier         sql.NullString `db:"hant012005"`
}

func (r pickingWorkRow) toDomain() domain.PickingWork {
	return domain.PickingWork{
		PickingID:       r.PickingID,
		WorkSeq:         r.WorkSeq,
		OrderID:         r.OrderID,
		Carrier:         domain.NormalizeCarrierCode(r.Carrier.String),
		OriginalCarrier: domain.NormalizeCarrierCode(r.OriginalCarrier.String),
	}
}

type pickingSummaryRow struct {
	PickingID       string         `db:"picking_id"`
	PickingDate     string         `db:"picking_date"`
	CustomerCode    string         `db:"customer_code"`
	CustomerName    sql.NullString `db:"customer_name"`
	StaffCode       string         `db:"staff_code"`
	StaffName       sql.NullString `db:"staff_name"`
	OrderCount      int            `db:"order_count"`
	UnassignedCount int            `db:"unassigned_count"`
	UpdateStamp     string         `db:"update_stamp"`
}

func (r pickingSummaryRow) toDomain() domain.PickingSummary {
	s := domain.PickingSummary{
		PickingID:       r.PickingID,
		PickingDate:     strings.TrimSpace(r.PickingDate),
		CustomerCode:    strings.TrimSpace(r.CustomerCode),
		CustomerName:    strings.TrimSpace(r.CustomerName.String),
		StaffCode:       strings.TrimSpace(r.StaffCode),
		StaffName:       strings.TrimSpace(r.StaffName.String),
		OrderCount:      r.OrderCount,
		UnassignedCount: r.UnassignedCount,
	}
	if t, err := time.Parse(domain.StampLayout, r.UpdateStamp); err == nil {
		s.UpdatedAt = t
	}
	return s
}

type selectionLogRow struct {
	LogID           string          `db:"hant020001"`
	WaybillRef      string          `db:"hant020002"`
	PickingID       string          `db:"hant020003"`
	CustomerCode    string          `db:"hant020004"`
	ParcelCount     int             `db:"hant020005"`
	Volume          int             `db:"hant020006"`
	Weight          float64         `db:"hant020007"`
	CheapestCarrier string          `db:"hant020008"`
	ChosenCarrier   string          `db:"hant020009"`
	Reason          string          `db:"hant020010"`
	Fee             decimal.Decimal `db:"hant020011"`
	LeadTime        int             `db:"hant020012"`
	ShipDate        string          `db:"hant020013"`
	UpdateCount     int             `db:"hant020090"`
	UpdateStamp     string          `db:"hant020091"`
}

func newSelectionLogRow(logID string, s *domain.CarrierSelection, stamp string) selectionLogRow {
	return selectionLogRow{
		LogID:           logID,
		WaybillRef:      s.WaybillRef,
		PickingID:       s.PickingID,
		CustomerCode:    s.CustomerCode,
		ParcelCount:     s.ParcelCount,
		Volume:          s.Volume,
		Weight:          s.Weight,
		CheapestCarrier: s.CheapestCarrier,
		ChosenCarrier:   s.CarrierCode,
		Reason:          s.Reason,
		Fee:             s.Fee,
		LeadTime:        s.LeadTime,
		ShipDate:        domain.DateKey(s.ShipDate),
		UpdateCount:     1,
		UpdateStamp:     stamp,
	}
}

type selectionLogLineRow struct {
	LogID       string  `db:"hant021001"`
	ProductCode string  `db:"hant021002"`
	Girth       float64 `db:"hant021003"`
	BoxCount    int     `db:"hant021004"`
}

type outboxRow struct {
	ID            string        `db:"id"`
	AggregateID   string        `db:"aggregate_id"`
	AggregateType string        `db:"aggregate_type"`
	EventType     string        `db:"event_type"`
	Topic         string        `db:"topic"`
	Payload       string        `db:"payload"`
	CreatedAt     int64         `db:"created_at"`
	PublishedAt   sql.NullInt64 `db:"published_at"`
	RetryCount    int           `db:"retry_count"`
	MaxRetries    int           `db:"max_retries"`
	LastError     string        `db:"last_error"`
}

func dateKeys(dates []time.Time) []string {
	seen := make(map[string]bool, len(dates))
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		k := domain.DateKey(d)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
