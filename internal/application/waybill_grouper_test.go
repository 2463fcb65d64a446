package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

func newTestGrouper(p *fakePickingRepository, r *fakeReferenceRepository) *WaybillGrouper {
	g := NewWaybillGrouper(p, r, "NONE", nil)
	g.now = func() time.Time { return time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC) }
	return g
}

func TestWaybillGrouper_GroupsByDestination(t *testing.T) {
	pickings := newFakePickingRepository()
	o3 := order("O3", "C001", "")
	o3.DestName1 = "Other"
	pickings.addPicking("PK001", []domain.OrderHeader{
		order("O2", "C001", ""),
		order("O1", "C001", ""),
		o3,
	}, "P1", 2)

	g := newTestGrouper(pickings, newFakeReferenceRepository())
	grouping, err := g.Group(context.Background(), "PK001")
	require.NoError(t, err)

	assert.Equal(t, 3, grouping.OrderCount)
	assert.Equal(t, 0, grouping.AssignedCount)
	require.Len(t, grouping.Waybills, 2)

	first := grouping.Waybills[0]
	assert.Equal(t, "WB-PK001-1", first.ID)
	assert.Equal(t, "O1", first.Ref)
	assert.Equal(t, []string{"O1", "O2"}, first.OrderIDs)
	assert.Equal(t, "1000001", first.PostalCode)
	assert.Equal(t, "13101", first.RegionCode)
	assert.Equal(t, "13", first.PrefectureCode)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), first.ShipDate)
	assert.Nil(t, first.DeliveryDate)
	require.Len(t, first.Products, 1)
	assert.Equal(t, "P1", first.Products[0].Product.Code)
	assert.Equal(t, 4, first.Products[0].Quantity)
	assert.Len(t, first.WorkRefs, 2)

	second := grouping.Waybills[1]
	assert.Equal(t, "WB-PK001-2", second.ID)
	assert.Equal(t, "O3", second.Ref)
	assert.Equal(t, []domain.PickingWorkRef{{PickingID: "PK001", WorkSeq: 3, OrderID: "O3"}}, second.WorkRefs)
}

func TestWaybillGrouper_SkipsAssignedOrders(t *testing.T) {
	pickings := newFakePickingRepository()
	assigned := order("O1", "C001", "")
	assigned.AssignedCarrier = "YAMATO"
	sentinel := order("O2", "C001", "")
	sentinel.AssignedCarrier = "NONE "
	pickings.addPicking("PK001", []domain.OrderHeader{assigned, sentinel}, "P1", 1)

	grouping, err := newTestGrouper(pickings, newFakeReferenceRepository()).Group(context.Background(), "PK001")
	require.NoError(t, err)

	assert.Equal(t, 1, grouping.AssignedCount)
	require.Len(t, grouping.Waybills, 1)
	assert.Equal(t, []string{"O2"}, grouping.Waybills[0].OrderIDs)
}

func TestWaybillGrouper_Errors(t *testing.T) {
	pickings := newFakePickingRepository()
	assigned := order("O1", "C001", "")
	assigned.AssignedCarrier = "SAGAWA"
	pickings.addPicking("PK001", []domain.OrderHeader{assigned}, "P1", 1)
	pickings.pickings["PK002"] = &domain.Picking{ID: "PK002"}
	pickings.pickings["PK003"] = &domain.Picking{ID: "PK003", Lines: []domain.PickingLine{{OrderID: "GONE", ProductCode: "P1", Quantity: 1}}}

	g := newTestGrouper(pickings, newFakeReferenceRepository())

	tests := []struct {
		name      string
		pickingID string
		want      error
	}{
		{"all assigned", "PK001", domain.ErrAllOrdersAssigned},
		{"no lines", "PK002", domain.ErrNoOrders},
		{"orders missing", "PK003", domain.ErrNoOrders},
		{"unknown picking", "PK404", domain.ErrNoOrders},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Group(context.Background(), tt.pickingID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWaybillGrouper_MissingProductUsesDefault(t *testing.T) {
	pickings := newFakePickingRepository()
	pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "UNKNOWN", 2)

	grouping, err := newTestGrouper(pickings, newFakeReferenceRepository()).Group(context.Background(), "PK001")
	require.NoError(t, err)
	require.Len(t, grouping.Waybills[0].Products, 1)
	assert.Equal(t, domain.DefaultProduct("UNKNOWN"), grouping.Waybills[0].Products[0].Product)
}

func TestWaybillGrouper_UnparseableDatesFallBack(t *testing.T) {
	pickings := newFakePickingRepository()
	o := order("O1", "C001", "2024-01-10")
	o.ShipDate = "TBD"
	pickings.addPicking("PK001", []domain.OrderHeader{o}, "P1", 1)

	grouping, err := newTestGrouper(pickings, newFakeReferenceRepository()).Group(context.Background(), "PK001")
	require.NoError(t, err)

	wb := grouping.Waybills[0]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), wb.ShipDate)
	require.NotNil(t, wb.DeliveryDate)
	assert.Equal(t, "20240110", domain.DateKey(*wb.DeliveryDate))
}

func TestWaybillGrouper_UnknownPostalKeepsOrderPrefecture(t *testing.T) {
	pickings := newFakePickingRepository()
	o := order("O1", "C001", "")
	o.DestPostal = "530-0001"
	o.DestPrefecture = "27"
	pickings.addPicking("PK001", []domain.OrderHeader{o}, "P1", 1)

	grouping, err := newTestGrouper(pickings, newFakeReferenceRepository()).Group(context.Background(), "PK001")
	require.NoError(t, err)

	wb := grouping.Waybills[0]
	assert.Equal(t, "", wb.RegionCode)
	assert.Equal(t, "27", wb.PrefectureCode)
}

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"100-0001", "1000001"},
		{" 1000001 ", "1000001"},
		{"１００－０００１", "1000001"},
		{"１００ー０００１", "1000001"},
		{"100 0001", "1000001"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePostalCode(tt.in))
		})
	}
}

func TestWaybillGrouper_PostalFormattingSharesWaybill(t *testing.T) {
	tests := []struct {
		name   string
		postal string
	}{
		{"digits only", "1000001"},
		{"full width", "１００－０００１"},
		{"spaced", " 100 0001 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pickings := newFakePickingRepository()
			variant := order("O2", "C001", "")
			variant.DestPostal = tt.postal
			pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", ""), variant}, "P1", 1)

			grouping, err := newTestGrouper(pickings, newFakeReferenceRepository()).Group(context.Background(), "PK001")
			require.NoError(t, err)

			require.Len(t, grouping.Waybills, 1)
			assert.Equal(t, []string{"O1", "O2"}, grouping.Waybills[0].OrderIDs)
			assert.Equal(t, "1000001", grouping.Waybills[0].PostalCode)
			assert.Equal(t, "13101", grouping.Waybills[0].RegionCode)
		})
	}
}
