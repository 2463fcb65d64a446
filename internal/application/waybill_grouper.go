package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/logging"
)

// Grouping is the set of waybills reconstructed from one picking
type Grouping struct {
	PickingID     string
	Waybills      []*domain.Waybill
	OrderCount    int
	AssignedCount int
}

// WaybillGrouper rebuilds waybills from picking lines and work rows
type WaybillGrouper struct {
	pickings  domain.PickingRepository
	reference domain.ReferenceRepository
	sentinel  string
	logger    *logging.Logger
	now       func() time.Time
}

// NewWaybillGrouper creates a grouper; sentinel is the configured "no carrier" value
func NewWaybillGrouper(pickings domain.PickingRepository, reference domain.ReferenceRepository, sentinel string, logger *logging.Logger) *WaybillGrouper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WaybillGrouper{
		pickings:  pickings,
		reference: reference,
		sentinel:  sentinel,
		logger:    logger.WithComponent("waybill-grouper"),
		now:       time.Now,
	}
}

type orderGroup struct {
	key    domain.GroupingKey
	orders []domain.OrderHeader
}

// Group returns the waybills of a picking in grouping-key order.
// It fails with ErrNoOrders when the picking references no orders and with
// ErrAllOrdersAssigned when every order already has a carrier.
func (g *WaybillGrouper) Group(ctx context.Context, pickingID string) (*Grouping, error) {
	picking, err := g.pickings.FindPicking(ctx, pickingID)
	if errors.Is(err, domain.ErrPickingNotFound) {
		return nil, fmt.Errorf("%w %s", domain.ErrNoOrders, pickingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load picking: %w", err)
	}

	orderIDs := picking.OrderIDs()
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("%w %s", domain.ErrNoOrders, pickingID)
	}

	orders, err := g.pickings.FindOrders(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w %s", domain.ErrNoOrders, pickingID)
	}

	result := &Grouping{PickingID: pickingID, OrderCount: len(orders)}

	groups := make(map[domain.GroupingKey]*orderGroup)
	for _, o := range orders {
		if !domain.IsUnassigned(o.AssignedCarrier, g.sentinel) {
			result.AssignedCount++
			continue
		}
		k := o.GroupingKey()
		k.DestPostal = NormalizePostalCode(k.DestPostal)
		grp, ok := groups[k]
		if !ok {
			grp = &orderGroup{key: k}
			groups[k] = grp
		}
		grp.orders = append(grp.orders, o)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w in picking %s", domain.ErrAllOrdersAssigned, pickingID)
	}

	sorted := make([]*orderGroup, 0, len(groups))
	for _, grp := range groups {
		sorted = append(sorted, grp)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key.Less(sorted[j].key) })

	regions, err := g.reference.FindRegions(ctx, postalCodes(sorted))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReferenceDataFailed, err)
	}
	products, err := g.reference.FindProducts(ctx, productCodes(picking.Lines))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReferenceDataFailed, err)
	}

	for i, grp := range sorted {
		wb := g.buildWaybill(picking, grp, i+1, regions, products)
		result.Waybills = append(result.Waybills, wb)
	}
	return result, nil
}

func (g *WaybillGrouper) buildWaybill(picking *domain.Picking, grp *orderGroup, n int, regions map[string]string, products map[string]domain.Product) *domain.Waybill {
	log := g.logger.WithPicking(picking.ID)
	head := grp.orders[0]

	members := make(map[string]bool, len(grp.orders))
	orderIDs := make([]string, 0, len(grp.orders))
	for _, o := range grp.orders {
		members[o.OrderID] = true
		orderIDs = append(orderIDs, o.OrderID)
	}
	sort.Strings(orderIDs)

	postal := NormalizePostalCode(grp.key.DestPostal)
	region := regions[postal]
	prefecture := head.DestPrefecture
	if len(region) >= 2 {
		prefecture = region[:2]
	}
	if region == "" {
		log.Warn("No region for postal code", "postalCode", postal, "orderId", orderIDs[0])
	}

	wb := &domain.Waybill{
		ID:             fmt.Sprintf("WB-%s-%d", picking.ID, n),
		Ref:            orderIDs[0],
		PickingID:      picking.ID,
		CustomerCode:   head.CustomerCode,
		PrefectureCode: prefecture,
		RegionCode:     region,
		PostalCode:     postal,
		ShipDate:       g.parseDate(log, "shipDate", grp.key.PlannedShipDate),
		OrderIDs:       orderIDs,
	}
	if strings.TrimSpace(grp.key.DeliveryDate) != "" {
		d := g.parseDate(log, "deliveryDate", grp.key.DeliveryDate)
		wb.DeliveryDate = &d
	}

	for _, w := range picking.Work {
		if members[w.OrderID] {
			wb.WorkRefs = append(wb.WorkRefs, domain.PickingWorkRef{PickingID: w.PickingID, WorkSeq: w.WorkSeq, OrderID: w.OrderID})
		}
	}

	quantities := make(map[string]int)
	var codes []string
	for _, l := range picking.Lines {
		if !members[l.OrderID] {
			continue
		}
		if _, seen := quantities[l.ProductCode]; !seen {
			codes = append(codes, l.ProductCode)
		}
		quantities[l.ProductCode] += l.Quantity
	}
	for _, code := range codes {
		product, ok := products[code]
		if !ok {
			log.Warn("Product not found, using default footprint", "productCode", code)
			product = domain.DefaultProduct(code)
		}
		wb.Products = append(wb.Products, domain.ProductQuantity{Product: product, Quantity: quantities[code]})
	}
	return wb
}

func (g *WaybillGrouper) parseDate(log *logging.Logger, field, raw string) time.Time {
	t, err := domain.ParseDate(raw)
	if err != nil {
		today := domain.TruncateDay(g.now())
		log.Warn("Unparseable date, using today", "field", field, "value", raw, "today", domain.DateKey(today))
		return today
	}
	return t
}

// NormalizePostalCode folds full-width digits to ASCII and strips hyphens and spaces
func NormalizePostalCode(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', 'ー', 'ｰ', '−', '‐':
			return -1
		}
		return r
	}, s)
}

func postalCodes(groups []*orderGroup) []string {
	seen := make(map[string]bool)
	var out []string
	for _, grp := range groups {
		p := NormalizePostalCode(grp.key.DestPostal)
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func productCodes(lines []domain.PickingLine) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lines {
		if !seen[l.ProductCode] {
			seen[l.ProductCode] = true
			out = append(out, l.ProductCode)
		}
	}
	return out
}
