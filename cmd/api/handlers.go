package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/carrier-selection/internal/application"
	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/api"
	"github.com/wms-platform/carrier-selection/pkg/errors"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/middleware"
)

type carrierSelector interface {
	SelectCarriers(ctx context.Context, cmd application.SelectCarriersCommand) (*application.CarrierSelectionResponse, error)
	BatchSelect(ctx context.Context, cmd application.BatchSelectCommand) *application.BatchCarrierSelectionResponse
}

type pickingLister interface {
	ListPickings(ctx context.Context, query application.ListPickingsQuery) (*application.PickingListResponse, error)
}

type batchStarter interface {
	StartBatch(ctx context.Context, pickingIDs []string) (*application.AsyncBatchResponse, error)
}

// errorMappings turns domain and context errors into HTTP errors; anything else is a 500
var errorMappings = []errors.Mapping{
	{Target: domain.ErrInvalidPickingID, Build: func(error) *errors.AppError {
		return errors.ErrValidationWithFields("validation failed", map[string]string{
			"picking_id": "must be a valid picking ID (1-20 alphanumeric characters)",
		})
	}},
	{Target: context.DeadlineExceeded, Build: func(error) *errors.AppError {
		return errors.ErrTimeout("request")
	}},
}

func validatePickingID(pickingID string) error {
	if err := middleware.InitValidator().Var(pickingID, "required,picking_id"); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPickingID, pickingID)
	}
	return nil
}

func listPickingsHandler(service pickingLister, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParseOffsetPagination(c)
		query := application.ListPickingsQuery{
			Skip:           int(page.Skip),
			Limit:          int(page.Limit),
			Query:          strings.TrimSpace(c.Query("query")),
			UnassignedOnly: api.ParseBool(c, "unassigned_only", false),
		}

		resp, err := service.ListPickings(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithAppError(errors.MapError(err, errorMappings...))
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func selectCarriersHandler(service carrierSelector, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req application.SelectCarriersRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		c.JSON(http.StatusOK, runSelection(c, service, logger, req.PickingID))
	}
}

func selectCarriersByPathHandler(service carrierSelector, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pickingID := c.Param("picking_id")
		if err := validatePickingID(pickingID); err != nil {
			responder.RespondWithAppError(errors.MapError(err, errorMappings...))
			return
		}

		c.JSON(http.StatusOK, runSelection(c, service, logger, pickingID))
	}
}

// runSelection always yields a response body; infrastructure errors are logged and
// reported through success=false.
func runSelection(c *gin.Context, service carrierSelector, logger *logging.Logger, pickingID string) *application.CarrierSelectionResponse {
	middleware.AddSpanAttributes(c, map[string]any{"picking.id": pickingID})

	resp, err := service.SelectCarriers(c.Request.Context(), application.SelectCarriersCommand{PickingID: pickingID})
	if err != nil {
		logger.WithError(err).WithPicking(pickingID).Error("Carrier selection failed")
	}
	return resp
}

func batchSelectHandler(service carrierSelector, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req application.BatchSelectRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]any{"picking.count": len(req.PickingIDs)})

		c.JSON(http.StatusOK, service.BatchSelect(c.Request.Context(), application.BatchSelectCommand{PickingIDs: req.PickingIDs}))
	}
}

func startBatchHandler(starter batchStarter, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		if starter == nil {
			responder.RespondServiceUnavailable("batch workflow")
			return
		}

		var req application.BatchSelectRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		resp, err := starter.StartBatch(c.Request.Context(), req.PickingIDs)
		if err != nil {
			responder.RespondWithAppError(errors.ErrServiceUnavailable("batch workflow").Wrap(err))
			return
		}

		logger.Audit(c.Request.Context(), "start_batch", "workflow", resp.WorkflowID, map[string]any{
			"pickings": len(req.PickingIDs),
			"runId":    resp.RunID,
		})
		c.JSON(http.StatusAccepted, resp)
	}
}
