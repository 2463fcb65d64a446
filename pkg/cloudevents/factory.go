package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/carrier-selection/pkg/logging"
)

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent creates a new WMSCloudEvent, copying the correlation ID from ctx when present
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if v, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = v
	}

	return event
}

// CreateCarrierSelectedEvent creates the event emitted after a waybill decision is committed
func (f *EventFactory) CreateCarrierSelectedEvent(ctx context.Context, data CarrierSelectedData) *WMSCloudEvent {
	return f.CreateEvent(ctx, CarrierSelected, "waybill/"+data.WaybillRef, data)
}

// CreateBatchCompletedEvent creates the event emitted when a batch workflow finishes
func (f *EventFactory) CreateBatchCompletedEvent(ctx context.Context, workflowID string, data CarrierSelectionBatchData) *WMSCloudEvent {
	event := f.CreateEvent(ctx, CarrierSelectionBatch, "workflow/"+workflowID, data)
	event.WorkflowID = workflowID
	return event
}
