package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

type selectionFixture struct {
	pickings   *fakePickingRepository
	reference  *fakeReferenceRepository
	selections *MockSelectionRepository
	service    *CarrierSelectionService
}

func newSelectionFixture(t *testing.T) *selectionFixture {
	t.Helper()
	f := &selectionFixture{
		pickings:   newFakePickingRepository(),
		reference:  newFakeReferenceRepository(),
		selections: new(MockSelectionRepository),
	}
	f.service = NewCarrierSelectionService(f.pickings, f.reference, f.selections, SelectionSettings{
		ShipOrigin:        "01",
		UnassignedCarrier: "NONE",
	}, nil, nil)
	return f
}

func (f *selectionFixture) expectSave() {
	f.selections.On("SaveSelection", mock.Anything, mock.AnythingOfType("*domain.CarrierSelection")).
		Return(&domain.SelectionResult{LogID: "2401080001", LogCreated: true, OrdersChanged: 1, WorkChanged: 1}, nil)
}

func TestSelectCarriers_CheapestWithoutDeadline(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "P1", 3)
	f.expectSave()

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.WaybillCount)
	assert.Equal(t, "selected carriers for 1 waybills", resp.Message)
	require.Len(t, resp.SelectionDetails, 1)

	detail := resp.SelectionDetails[0]
	assert.Equal(t, "WB-PK001-1", detail.WaybillID)
	assert.Equal(t, "SAGAWA", detail.SelectedCarrierCode)
	assert.Equal(t, "Sagawa", detail.SelectedCarrierName)
	assert.Equal(t, domain.ReasonLowestCost, detail.SelectionReason)
	assert.Equal(t, 1, detail.ParcelCount)
	assert.Equal(t, 1, detail.Volume)
	assert.InDelta(t, 4.5, detail.Weight, 1e-9)
	assert.Equal(t, 60, detail.Size)

	require.Len(t, detail.CarrierEstimates, 2)
	assert.Equal(t, "SAGAWA", detail.CarrierEstimates[0].CarrierCode)
	assert.Equal(t, 800.0, detail.CarrierEstimates[0].Cost)
	assert.Equal(t, 2, detail.CarrierEstimates[0].LeadTime)
	assert.Equal(t, "YAMATO", detail.CarrierEstimates[1].CarrierCode)
	assert.Equal(t, 980.0, detail.CarrierEstimates[1].Cost)
	assert.Equal(t, 1, detail.CarrierEstimates[1].LeadTime)

	f.selections.AssertNumberOfCalls(t, "SaveSelection", 1)
	saved := f.selections.Calls[0].Arguments.Get(1).(*domain.CarrierSelection)
	assert.Equal(t, "O1", saved.WaybillRef)
	assert.Equal(t, "SAGAWA", saved.CarrierCode)
	assert.Equal(t, "SAGAWA", saved.CheapestCarrier)
	assert.Equal(t, domain.RuleCost, saved.Rule)
	assert.Equal(t, []string{"O1"}, saved.OrderIDs)
}

func TestSelectCarriers_DeadlinePicksFastest(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "20240109")}, "P1", 3)
	f.expectSave()

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)
	require.Len(t, resp.SelectionDetails, 1)

	assert.Equal(t, "YAMATO", resp.SelectionDetails[0].SelectedCarrierCode)
	assert.Equal(t, domain.ReasonFastestForDeadline, resp.SelectionDetails[0].SelectionReason)

	saved := f.selections.Calls[0].Arguments.Get(1).(*domain.CarrierSelection)
	assert.Equal(t, domain.RuleDeadline, saved.Rule)
	assert.Equal(t, "SAGAWA", saved.CheapestCarrier)
}

func TestSelectCarriers_PreviousCarrierIsKept(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "P1", 3)
	f.pickings.previous["C001"] = "YAMATO"
	f.expectSave()

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)
	require.Len(t, resp.SelectionDetails, 1)

	assert.Equal(t, "YAMATO", resp.SelectionDetails[0].SelectedCarrierCode)
	assert.Equal(t, domain.ReasonPreviouslyUsed, resp.SelectionDetails[0].SelectionReason)
}

func TestSelectCarriers_SentinelPreviousCarrierIsIgnored(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "P1", 3)
	f.pickings.previous["C001"] = "NONE"
	f.expectSave()

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)
	require.Len(t, resp.SelectionDetails, 1)
	assert.Equal(t, "SAGAWA", resp.SelectionDetails[0].SelectedCarrierCode)
}

func TestSelectCarriers_AllOrdersAssigned(t *testing.T) {
	f := newSelectionFixture(t)
	o := order("O1", "C001", "")
	o.AssignedCarrier = "YAMATO"
	f.pickings.addPicking("PK001", []domain.OrderHeader{o}, "P1", 3)

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.WaybillCount)
	assert.Empty(t, resp.SelectionDetails)
	assert.Equal(t, "all orders in picking PK001 already have carriers assigned", resp.Message)
	f.selections.AssertNotCalled(t, "SaveSelection", mock.Anything, mock.Anything)
}

func TestSelectCarriers_NoOrders(t *testing.T) {
	f := newSelectionFixture(t)

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK404"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "PK404", resp.PickingID)
	assert.Equal(t, "no orders found for picking PK404", resp.Message)
	assert.NotNil(t, resp.SelectionDetails)
}

func TestSelectCarriers_NoEligibleCarrier(t *testing.T) {
	f := newSelectionFixture(t)
	o := order("O1", "C001", "")
	o.DestPostal = "9999999"
	f.pickings.addPicking("PK001", []domain.OrderHeader{o}, "P1", 3)

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.WaybillCount)
	assert.Equal(t, "no carrier could be selected for picking PK001", resp.Message)
	f.selections.AssertNotCalled(t, "SaveSelection", mock.Anything, mock.Anything)
}

func TestSelectCarriers_PersistenceFailureSkipsWaybill(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{
		order("O1", "C001", ""),
		order("O2", "C002", ""),
	}, "P1", 3)

	f.selections.On("SaveSelection", mock.Anything, mock.MatchedBy(func(s *domain.CarrierSelection) bool {
		return s.WaybillRef == "O1"
	})).Return(nil, domain.ErrPersistenceFailed).Once()
	f.selections.On("SaveSelection", mock.Anything, mock.MatchedBy(func(s *domain.CarrierSelection) bool {
		return s.WaybillRef == "O2"
	})).Return(&domain.SelectionResult{LogID: "2401080002"}, nil).Once()

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.WaybillCount)
	require.Len(t, resp.SelectionDetails, 1)
	assert.Equal(t, "WB-PK001-2", resp.SelectionDetails[0].WaybillID)
	assert.Equal(t, "selected carriers for 1 of 2 waybills", resp.Message)
	f.selections.AssertExpectations(t)
}

func TestSelectCarriers_ReferenceFailureIsReturned(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "P1", 3)
	f.reference.err = errors.New("connection refused")

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReferenceDataFailed)

	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "failed to load reference data for picking PK001", resp.Message)
}

func TestSelectCarriers_PickingLoadFailureIsReturned(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.err = errors.New("timeout")

	resp, err := f.service.SelectCarriers(context.Background(), SelectCarriersCommand{PickingID: "PK001"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
}

func TestBatchSelect(t *testing.T) {
	f := newSelectionFixture(t)
	f.pickings.addPicking("PK001", []domain.OrderHeader{order("O1", "C001", "")}, "P1", 3)
	assigned := order("O2", "C002", "")
	assigned.AssignedCarrier = "SAGAWA"
	f.pickings.addPicking("PK002", []domain.OrderHeader{assigned}, "P1", 1)
	f.expectSave()

	batch := f.service.BatchSelect(context.Background(), BatchSelectCommand{PickingIDs: []string{"PK001", "PK002", "PK404"}})

	assert.True(t, batch.Success)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, "PK001", batch.Results[0].PickingID)
	assert.Equal(t, "PK002", batch.Results[1].PickingID)
	assert.Equal(t, "PK404", batch.Results[2].PickingID)
	assert.Equal(t, []string{"PK404"}, batch.FailedPickings)
	assert.Equal(t, "processed 3 pickings, 1 failed", batch.Message)
	assert.Equal(t, 1, batch.WaybillCount())
}

func TestBatchSelect_AllFailed(t *testing.T) {
	f := newSelectionFixture(t)

	batch := f.service.BatchSelect(context.Background(), BatchSelectCommand{PickingIDs: []string{"PK404"}})

	assert.False(t, batch.Success)
	assert.Equal(t, []string{"PK404"}, batch.FailedPickings)
}
