package application

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

type fakePickingRepository struct {
	pickings map[string]*domain.Picking
	orders   map[string]domain.OrderHeader
	previous map[string]string
	summary  []domain.PickingSummary
	lastList domain.PickingQuery
	err      error
}

func newFakePickingRepository() *fakePickingRepository {
	return &fakePickingRepository{
		pickings: make(map[string]*domain.Picking),
		orders:   make(map[string]domain.OrderHeader),
		previous: make(map[string]string),
	}
}

func (f *fakePickingRepository) FindPicking(ctx context.Context, pickingID string) (*domain.Picking, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pickings[pickingID]
	if !ok {
		return nil, domain.ErrPickingNotFound
	}
	return p, nil
}

func (f *fakePickingRepository) FindOrders(ctx context.Context, orderIDs []string) ([]domain.OrderHeader, error) {
	var out []domain.OrderHeader
	for _, id := range orderIDs {
		if o, ok := f.orders[id]; ok {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (f *fakePickingRepository) FindPreviousCarrier(ctx context.Context, customerCode, sentinel string) (string, error) {
	return f.previous[customerCode], nil
}

func (f *fakePickingRepository) ListPickings(ctx context.Context, query domain.PickingQuery) ([]domain.PickingSummary, int64, error) {
	f.lastList = query
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.summary, int64(len(f.summary)), nil
}

// addPicking registers a picking whose orders each carry one line of product with qty units
func (f *fakePickingRepository) addPicking(id string, orders []domain.OrderHeader, product string, qty int) {
	p := &domain.Picking{ID: id}
	for i, o := range orders {
		f.orders[o.OrderID] = o
		p.Lines = append(p.Lines, domain.PickingLine{PickingID: id, OrderID: o.OrderID, LineNo: 1, ProductCode: product, Quantity: qty})
		p.Work = append(p.Work, domain.PickingWork{PickingID: id, WorkSeq: i + 1, OrderID: o.OrderID, Carrier: o.AssignedCarrier})
	}
	f.pickings[id] = p
}

type fakeReferenceRepository struct {
	data     domain.ReferenceData
	products map[string]domain.Product
	regions  map[string]string
	areas    map[string]string
	err      error
}

// newFakeReferenceRepository serves SAGAWA (800 yen, 2 days) and YAMATO (980 yen, 1 day)
// for postal 1000001 -> region 13101 -> area KANTO from origin 01.
func newFakeReferenceRepository() *fakeReferenceRepository {
	return &fakeReferenceRepository{
		data: domain.ReferenceData{
			Carriers: []domain.Carrier{{Code: "YAMATO", Name: "Yamato"}, {Code: "SAGAWA", Name: "Sagawa"}},
			FeeRules: []domain.FeeRule{
				{CarrierCode: "SAGAWA", AreaCode: "KANTO", BaseFee: decimal.NewFromInt(800), FeeType: domain.FeeTypeFixed},
				{CarrierCode: "YAMATO", AreaCode: "KANTO", BaseFee: decimal.NewFromInt(980), FeeType: domain.FeeTypeFixed},
			},
			Branches: []domain.CarrierBranch{
				{CarrierCode: "SAGAWA", ShipOrigin: "01", PrefectureCode: "13", StandardLeadTime: 2, HasStandardLeadTime: true},
				{CarrierCode: "YAMATO", ShipOrigin: "01", PrefectureCode: "13", StandardLeadTime: 1, HasStandardLeadTime: true},
			},
		},
		products: map[string]domain.Product{
			"P1": {
				Code: "P1", OuterBoxCapacity: 10, SetParcelCount: 1, UnitWeight: 1.5,
				Boxes: []domain.Dimensions{{Length: 30, Width: 20, Height: 10}},
			},
		},
		regions: map[string]string{"1000001": "13101"},
		areas:   map[string]string{"13101": "KANTO"},
	}
}

func (f *fakeReferenceRepository) ListCarriers(ctx context.Context) ([]domain.Carrier, error) {
	return f.data.Carriers, f.err
}

func (f *fakeReferenceRepository) FindProducts(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product)
	for _, c := range codes {
		if p, ok := f.products[c]; ok {
			out[c] = p
		}
	}
	return out, nil
}

func (f *fakeReferenceRepository) FindRegions(ctx context.Context, postalCodes []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range postalCodes {
		if r, ok := f.regions[p]; ok {
			out[p] = r
		}
	}
	return out, nil
}

func (f *fakeReferenceRepository) FindAreas(ctx context.Context, regionCodes []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, r := range regionCodes {
		if a, ok := f.areas[r]; ok {
			out[r] = a
		}
	}
	return out, nil
}

func (f *fakeReferenceRepository) ListFeeRules(ctx context.Context, areaCodes []string) ([]domain.FeeRule, error) {
	return f.data.FeeRules, nil
}

func (f *fakeReferenceRepository) ListCapacities(ctx context.Context) ([]domain.Capacity, error) {
	return f.data.Capacities, nil
}

func (f *fakeReferenceRepository) ListSpecialCapacities(ctx context.Context, dates []time.Time) ([]domain.SpecialCapacity, error) {
	return f.data.SpecialCapacities, nil
}

func (f *fakeReferenceRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]domain.Holiday, error) {
	return f.data.Holidays, nil
}

func (f *fakeReferenceRepository) ListBranches(ctx context.Context, shipOrigin string) ([]domain.CarrierBranch, error) {
	return f.data.Branches, nil
}

func (f *fakeReferenceRepository) ListSpecialLeadTimes(ctx context.Context, shipDates []time.Time) ([]domain.SpecialLeadTime, error) {
	return f.data.SpecialLeadTimes, nil
}

type MockSelectionRepository struct {
	mock.Mock
}

func (m *MockSelectionRepository) SaveSelection(ctx context.Context, selection *domain.CarrierSelection) (*domain.SelectionResult, error) {
	args := m.Called(ctx, selection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SelectionResult), args.Error(1)
}

func order(id, customer, deliveryDate string) domain.OrderHeader {
	return domain.OrderHeader{
		OrderID:        id,
		CustomerCode:   customer,
		ShipDate:       "20240108",
		DeliveryDate:   deliveryDate,
		DestName1:      "Acme",
		DestPostal:     "100-0001",
		DestAddr1:      "1-1 Chiyoda",
		DestPrefecture: "13",
	}
}
