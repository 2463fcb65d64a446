package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/pkg/temporal"
)

// Activity timeouts
const (
	SelectCarriersTimeout = 5 * time.Minute
	PublishBatchTimeout   = 30 * time.Second
)

// CarrierSelectionWorkflowInput is the input of the asynchronous batch run
type CarrierSelectionWorkflowInput struct {
	PickingIDs []string `json:"pickingIds"`
}

// BatchCompletedInput is passed to the batch-completed activity
type BatchCompletedInput struct {
	WorkflowID     string   `json:"workflowId"`
	PickingIDs     []string `json:"pickingIds"`
	FailedPickings []string `json:"failedPickings"`
	Success        bool     `json:"success"`
	WaybillCount   int      `json:"waybillCount"`
}

// CarrierSelectionWorkflow selects carriers for each picking in order. A picking
// whose activity keeps failing is reported as failed; the batch continues.
func CarrierSelectionWorkflow(ctx workflow.Context, input CarrierSelectionWorkflowInput) (*application.BatchCarrierSelectionResponse, error) {
	logger := workflow.GetLogger(ctx)
	info := workflow.GetInfo(ctx)

	logger.Info("Starting carrier selection workflow", "pickings", len(input.PickingIDs))

	batch := &application.BatchCarrierSelectionResponse{
		Results:        make([]application.CarrierSelectionResponse, 0, len(input.PickingIDs)),
		FailedPickings: []string{},
	}

	selectCtx := WithActivityOptions(ctx, SelectCarriersTimeout, StandardRetry)
	for _, pickingID := range input.PickingIDs {
		var resp application.CarrierSelectionResponse
		err := workflow.ExecuteActivity(selectCtx, temporal.ActivityNames.SelectCarriersForPicking, pickingID).Get(ctx, &resp)
		if err != nil {
			logger.Error("Picking failed", "pickingId", pickingID, "error", err)
			resp = application.CarrierSelectionResponse{
				PickingID:        pickingID,
				Message:          fmt.Sprintf("failed to select carriers for picking %s: %v", pickingID, err),
				SelectionDetails: []application.SelectionDetailDTO{},
			}
		}

		batch.Results = append(batch.Results, resp)
		if resp.Success {
			batch.Success = true
		} else {
			batch.FailedPickings = append(batch.FailedPickings, pickingID)
		}
	}
	batch.Message = fmt.Sprintf("processed %d pickings, %d failed", len(input.PickingIDs), len(batch.FailedPickings))

	publishCtx := WithActivityOptions(ctx, PublishBatchTimeout, StandardRetry)
	err := workflow.ExecuteActivity(publishCtx, temporal.ActivityNames.PublishBatchCompleted, BatchCompletedInput{
		WorkflowID:     info.WorkflowExecution.ID,
		PickingIDs:     input.PickingIDs,
		FailedPickings: batch.FailedPickings,
		Success:        batch.Success,
		WaybillCount:   batch.WaybillCount(),
	}).Get(ctx, nil)
	if err != nil {
		// best effort
		logger.Warn("Failed to publish batch completed event", "error", err)
	}

	logger.Info("Carrier selection workflow completed",
		"pickings", len(input.PickingIDs),
		"failed", len(batch.FailedPickings),
	)
	return batch, nil
}
