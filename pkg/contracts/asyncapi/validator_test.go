package asyncapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
)

const specPath = "../../../api/asyncapi.yaml"

func carrierSelectedData() cloudevents.CarrierSelectedData {
	return cloudevents.CarrierSelectedData{
		LogID:           "2401080001",
		WaybillRef:      "PK001-1",
		PickingID:       "PK001",
		CustomerCode:    "C001",
		CarrierCode:     "SAGAWA",
		CheapestCarrier: "SAGAWA",
		Rule:            "cost",
		Reason:          "cheapest",
		Fee:             "800",
		LeadTimeDays:    2,
		ParcelCount:     1,
		Volume:          1,
		Weight:          4.5,
		OrderIDs:        []string{"O1", "O2"},
		ShipDate:        "20240108",
	}
}

func envelope(t *testing.T, ev *cloudevents.WMSCloudEvent) CloudEvent {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	var out CloudEvent
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewEventValidator(t *testing.T) {
	v, err := NewEventValidator(specPath)
	require.NoError(t, err)

	assert.Equal(t, "Carrier Selection Service Events", v.Title())
	assert.True(t, v.HasSchema(cloudevents.CarrierSelected))
	assert.True(t, v.HasSchema(cloudevents.CarrierSelectionBatch))
	assert.False(t, v.HasSchema("wms.shipping.shipment-created"))

	addr, ok := v.ChannelAddress("shippingEvents")
	require.True(t, ok)
	assert.Equal(t, "wms.shipping.events", addr)
}

func TestValidateEvent_CarrierSelected(t *testing.T) {
	v, err := NewEventValidator(specPath)
	require.NoError(t, err)
	factory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)

	t.Run("valid", func(t *testing.T) {
		ev := factory.CreateCarrierSelectedEvent(context.Background(), carrierSelectedData())
		assert.NoError(t, v.ValidateEvent(envelope(t, ev)))
	})

	invalid := []struct {
		name   string
		mutate func(d *cloudevents.CarrierSelectedData)
	}{
		{"short log id", func(d *cloudevents.CarrierSelectedData) { d.LogID = "24010801" }},
		{"unknown rule", func(d *cloudevents.CarrierSelectedData) { d.Rule = "random" }},
		{"negative fee", func(d *cloudevents.CarrierSelectedData) { d.Fee = "-1" }},
		{"no orders", func(d *cloudevents.CarrierSelectedData) { d.OrderIDs = []string{} }},
		{"dashed ship date", func(d *cloudevents.CarrierSelectedData) { d.ShipDate = "2024-01-08" }},
		{"zero parcels", func(d *cloudevents.CarrierSelectedData) { d.ParcelCount = 0 }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			data := carrierSelectedData()
			tt.mutate(&data)
			ev := factory.CreateCarrierSelectedEvent(context.Background(), data)
			assert.Error(t, v.ValidateEvent(envelope(t, ev)))
		})
	}
}

func TestValidateEvent_BatchCompleted(t *testing.T) {
	v, err := NewEventValidator(specPath)
	require.NoError(t, err)
	factory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)

	ev := factory.CreateBatchCompletedEvent(context.Background(), "carrier-selection-batch-1", cloudevents.CarrierSelectionBatchData{
		PickingIDs:     []string{"PK001", "PK404"},
		FailedPickings: []string{"PK404"},
		Success:        true,
		WaybillCount:   2,
	})

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NoError(t, v.ValidateEventJSON(raw))
}

func TestValidateEvent_Envelope(t *testing.T) {
	v, err := NewEventValidator(specPath)
	require.NoError(t, err)

	base := CloudEvent{
		SpecVersion: "1.0",
		Type:        cloudevents.CarrierSelectionBatch,
		Source:      cloudevents.SourceCarrierSelection,
		ID:          "evt-1",
		Data:        map[string]any{"pickingIds": []string{}, "failedPickings": []string{}, "success": false, "waybillCount": 0},
	}
	require.NoError(t, v.ValidateEvent(base))

	tests := []struct {
		name   string
		mutate func(e *CloudEvent)
	}{
		{"old specversion", func(e *CloudEvent) { e.SpecVersion = "0.3" }},
		{"missing id", func(e *CloudEvent) { e.ID = "" }},
		{"unknown type", func(e *CloudEvent) { e.Type = "wms.shipping.unknown" }},
		{"no data", func(e *CloudEvent) { e.Data = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := base
			tt.mutate(&ev)
			assert.Error(t, v.ValidateEvent(ev))
		})
	}

	assert.Error(t, v.ValidateEventJSON([]byte("{not json")))
}
