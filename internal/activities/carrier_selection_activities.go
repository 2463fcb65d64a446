package activities

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/internal/workflows"
	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/outbox"
)

// CarrierSelector runs carrier selection for one picking
type CarrierSelector interface {
	SelectCarriers(ctx context.Context, cmd application.SelectCarriersCommand) (*application.CarrierSelectionResponse, error)
}

// OutboxWriter stores an event for the outbox publisher
type OutboxWriter interface {
	Save(ctx context.Context, event *outbox.OutboxEvent) error
}

// CarrierSelectionActivities contains the activities of the batch workflow
type CarrierSelectionActivities struct {
	selector CarrierSelector
	outbox   OutboxWriter
	events   *cloudevents.EventFactory
	topic    string
	logger   *slog.Logger
}

// NewCarrierSelectionActivities creates a new CarrierSelectionActivities instance
func NewCarrierSelectionActivities(selector CarrierSelector, writer OutboxWriter, events *cloudevents.EventFactory, topic string, logger *slog.Logger) *CarrierSelectionActivities {
	return &CarrierSelectionActivities{
		selector: selector,
		outbox:   writer,
		events:   events,
		topic:    topic,
		logger:   logger,
	}
}

// SelectCarriersForPicking selects carriers for one picking. Infrastructure
// failures are returned so Temporal retries them; business outcomes are in the response.
func (a *CarrierSelectionActivities) SelectCarriersForPicking(ctx context.Context, pickingID string) (*application.CarrierSelectionResponse, error) {
	logger := activity.GetLogger(ctx)

	pickingID = strings.TrimSpace(pickingID)
	if pickingID == "" {
		return nil, temporal.NewNonRetryableApplicationError("picking id is required", workflows.ErrorTypeValidation, nil)
	}

	logger.Info("Selecting carriers", "pickingId", pickingID, "attempt", activity.GetInfo(ctx).Attempt)

	resp, err := a.selector.SelectCarriers(ctx, application.SelectCarriersCommand{PickingID: pickingID})
	if err != nil {
		logger.Error("Carrier selection failed", "pickingId", pickingID, "error", err)
		return nil, fmt.Errorf("failed to select carriers for picking %s: %w", pickingID, err)
	}

	logger.Info("Carriers selected",
		"pickingId", pickingID,
		"waybills", resp.WaybillCount,
		"selected", len(resp.SelectionDetails),
		"success", resp.Success,
	)
	return resp, nil
}

// PublishBatchCompleted queues the batch-completed event in the outbox
func (a *CarrierSelectionActivities) PublishBatchCompleted(ctx context.Context, input workflows.BatchCompletedInput) error {
	logger := activity.GetLogger(ctx)

	event := a.events.CreateBatchCompletedEvent(ctx, input.WorkflowID, cloudevents.CarrierSelectionBatchData{
		PickingIDs:     input.PickingIDs,
		FailedPickings: input.FailedPickings,
		Success:        input.Success,
		WaybillCount:   input.WaybillCount,
	})

	ob, err := outbox.NewOutboxEventFromCloudEvent(input.WorkflowID, "CarrierSelectionBatch", a.topic, event)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("failed to encode batch event", workflows.ErrorTypeValidation, err)
	}
	if err := a.outbox.Save(ctx, ob); err != nil {
		logger.Error("Failed to queue batch event", "workflowId", input.WorkflowID, "error", err)
		return fmt.Errorf("failed to queue batch event: %w", err)
	}

	logger.Info("Batch completed event queued", "workflowId", input.WorkflowID, "eventId", event.ID)
	return nil
}
