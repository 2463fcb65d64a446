package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/internal/workflows"
	"github.com/wms-platform/carrier-selection/pkg/temporal"
)

// temporalBatchStarter starts CarrierSelectionWorkflow runs
type temporalBatchStarter struct {
	client *temporal.Client
}

func (s *temporalBatchStarter) StartBatch(ctx context.Context, pickingIDs []string) (*application.AsyncBatchResponse, error) {
	workflowID := "carrier-selection-batch-" + uuid.New().String()

	run, err := s.client.StartWorkflow(ctx, workflowID,
		temporal.TaskQueues.CarrierSelection,
		temporal.WorkflowNames.CarrierSelection,
		workflows.CarrierSelectionWorkflowInput{PickingIDs: pickingIDs},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start carrier selection workflow: %w", err)
	}

	return &application.AsyncBatchResponse{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}
