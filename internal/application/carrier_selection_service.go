package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/tracing"
)

// Waybill outcomes recorded in metrics
const (
	OutcomeSelected    = "selected"
	OutcomeEmpty       = "empty"
	OutcomeNoArea      = "no_area"
	OutcomeNoCarrier   = "no_eligible_carrier"
	OutcomePersistFail = "persistence_failed"
)

// SelectionSettings are the site tunables of the selector
type SelectionSettings struct {
	ShipOrigin        string
	MaxLeadTimeSpan   int
	UnassignedCarrier string
}

// CarrierSelectionService runs the carrier-selection use cases
type CarrierSelectionService struct {
	grouper    *WaybillGrouper
	pickings   domain.PickingRepository
	reference  domain.ReferenceRepository
	selections domain.SelectionRepository
	policy     *domain.SelectionPolicy
	settings   SelectionSettings
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewCarrierSelectionService creates a new CarrierSelectionService; m may be nil
func NewCarrierSelectionService(
	pickings domain.PickingRepository,
	reference domain.ReferenceRepository,
	selections domain.SelectionRepository,
	settings SelectionSettings,
	m *metrics.Metrics,
	logger *logging.Logger,
) *CarrierSelectionService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.MaxLeadTimeSpan <= 0 {
		settings.MaxLeadTimeSpan = domain.DefaultMaxLeadTimeSpan
	}
	return &CarrierSelectionService{
		grouper:    NewWaybillGrouper(pickings, reference, settings.UnassignedCarrier, logger),
		pickings:   pickings,
		reference:  reference,
		selections: selections,
		policy:     domain.DefaultSelectionPolicy(),
		settings:   settings,
		metrics:    m,
		logger:     logger.WithComponent("carrier-selection"),
		tracer:     otel.Tracer("carrier-selection"),
	}
}

// SelectCarriers assigns a carrier to every unassigned waybill of a picking.
// The response is always populated; a non-nil error reports an infrastructure
// failure that a caller may retry.
func (s *CarrierSelectionService) SelectCarriers(ctx context.Context, cmd SelectCarriersCommand) (*CarrierSelectionResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "carrier_selection.select",
		trace.WithAttributes(tracing.SelectionSpanAttributes(cmd.PickingID, "")...))
	defer span.End()

	resp, err := s.selectCarriers(ctx, cmd.PickingID)

	span.SetAttributes(
		attribute.Int("wms.waybill_count", resp.WaybillCount),
		attribute.Bool("wms.success", resp.Success),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordPickingDuration(resp.Success, duration)
	}
	s.logger.Performance(ctx, "select_carriers", duration, resp.Success, map[string]any{
		"pickingId":    cmd.PickingID,
		"waybillCount": resp.WaybillCount,
		"selected":     len(resp.SelectionDetails),
	})
	return resp, err
}

func (s *CarrierSelectionService) selectCarriers(ctx context.Context, pickingID string) (*CarrierSelectionResponse, error) {
	log := s.logger.WithPicking(pickingID)
	resp := &CarrierSelectionResponse{PickingID: pickingID, SelectionDetails: []SelectionDetailDTO{}}

	grouping, err := s.grouper.Group(ctx, pickingID)
	switch {
	case errors.Is(err, domain.ErrNoOrders):
		resp.Message = fmt.Sprintf("no orders found for picking %s", pickingID)
		log.Info("No orders found for picking")
		return resp, nil
	case errors.Is(err, domain.ErrAllOrdersAssigned):
		resp.Success = true
		resp.Message = fmt.Sprintf("all orders in picking %s already have carriers assigned", pickingID)
		log.Info("All orders already have carriers assigned")
		return resp, nil
	case err != nil:
		log.WithError(err).Error("Failed to group waybills")
		resp.Message = fmt.Sprintf("failed to load picking %s", pickingID)
		return resp, err
	}

	resp.WaybillCount = len(grouping.Waybills)

	rc, areas, err := s.loadReferenceContext(ctx, grouping.Waybills)
	if err != nil {
		log.WithError(err).Error("Failed to load reference data")
		resp.Message = fmt.Sprintf("failed to load reference data for picking %s", pickingID)
		return resp, err
	}

	failed := 0
	for _, wb := range grouping.Waybills {
		if err := ctx.Err(); err != nil {
			log.Warn("Selection cancelled", "remainingFrom", wb.ID)
			failed = resp.WaybillCount - len(resp.SelectionDetails)
			break
		}

		detail, outcome, err := s.selectForWaybill(ctx, rc, areas, wb)
		s.recordOutcome(outcome)
		if err != nil {
			failed++
			log.WithError(err).Warn("Waybill not assigned", "waybillId", wb.ID, "waybillRef", wb.Ref, "outcome", outcome)
			continue
		}
		resp.SelectionDetails = append(resp.SelectionDetails, *detail)
	}

	selected := len(resp.SelectionDetails)
	resp.Success = selected > 0
	switch {
	case failed == 0:
		resp.Message = fmt.Sprintf("selected carriers for %d waybills", selected)
	case selected > 0:
		resp.Message = fmt.Sprintf("selected carriers for %d of %d waybills", selected, resp.WaybillCount)
	default:
		resp.Message = fmt.Sprintf("no carrier could be selected for picking %s", pickingID)
	}

	log.Info("Carrier selection finished", "waybills", resp.WaybillCount, "selected", selected, "failed", failed)
	return resp, nil
}

func (s *CarrierSelectionService) selectForWaybill(ctx context.Context, rc *domain.ReferenceContext, areas map[string]string, wb *domain.Waybill) (*SelectionDetailDTO, string, error) {
	ctx, span := s.tracer.Start(ctx, "carrier_selection.waybill",
		trace.WithAttributes(tracing.SelectionSpanAttributes(wb.PickingID, wb.Ref)...))
	defer span.End()

	m := domain.CalculateMetrics(wb.Products)
	if m.IsEmpty() {
		return nil, OutcomeEmpty, domain.ErrEmptyShipment
	}

	area, ok := areas[wb.RegionCode]
	if !ok || area == "" {
		return nil, OutcomeNoArea, fmt.Errorf("%w %q", domain.ErrAreaNotFound, wb.RegionCode)
	}

	previous, err := s.pickings.FindPreviousCarrier(ctx, wb.CustomerCode, s.settings.UnassignedCarrier)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to find previous carrier", "customerCode", wb.CustomerCode)
		previous = ""
	}
	if domain.IsUnassigned(previous, s.settings.UnassignedCarrier) {
		previous = ""
	}

	estimates := domain.EvaluateCarriers(rc, wb, m, area)
	if s.metrics != nil {
		for _, e := range estimates {
			s.metrics.RecordCarrierEstimate(e.Carrier.Code, e.Eligible)
		}
	}

	choice, err := s.policy.Choose(domain.SelectionInput{
		Estimates:       estimates,
		PreviousCarrier: previous,
		ShipDate:        wb.ShipDate,
		Deadline:        wb.DeliveryDate,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, OutcomeNoCarrier, err
	}

	cheapest, _ := domain.Cheapest(estimates)
	selection := domain.NewCarrierSelection(wb, m, choice, cheapest.Carrier.Code)
	if _, err := s.selections.SaveSelection(ctx, selection); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, OutcomePersistFail, err
	}

	span.SetAttributes(
		attribute.String("wms.carrier_code", choice.Estimate.Carrier.Code),
		attribute.String("wms.selection_rule", string(choice.Rule)),
	)
	if s.metrics != nil {
		s.metrics.RecordCarrierSelected(choice.Estimate.Carrier.Code, string(choice.Rule), choice.Estimate.Cost.InexactFloat64())
	}

	detail := ToSelectionDetailDTO(wb, m, estimates, choice)
	return &detail, OutcomeSelected, nil
}

func (s *CarrierSelectionService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWaybillOutcome(outcome)
	}
}

// loadReferenceContext fetches the reference rows the waybills of one picking need
func (s *CarrierSelectionService) loadReferenceContext(ctx context.Context, waybills []*domain.Waybill) (*domain.ReferenceContext, map[string]string, error) {
	var regions []string
	var shipDates []time.Time
	seenRegion := make(map[string]bool)
	first, last := waybills[0].ShipDate, waybills[0].ShipDate
	for _, wb := range waybills {
		if wb.RegionCode != "" && !seenRegion[wb.RegionCode] {
			seenRegion[wb.RegionCode] = true
			regions = append(regions, wb.RegionCode)
		}
		shipDates = append(shipDates, wb.ShipDate)
		if wb.ShipDate.Before(first) {
			first = wb.ShipDate
		}
		if wb.ShipDate.After(last) {
			last = wb.ShipDate
		}
	}

	fail := func(what string, err error) error {
		return fmt.Errorf("%w: %s: %w", domain.ErrReferenceDataFailed, what, err)
	}

	areas, err := s.reference.FindAreas(ctx, regions)
	if err != nil {
		return nil, nil, fail("areas", err)
	}
	areaCodes := make([]string, 0, len(areas))
	seenArea := make(map[string]bool)
	for _, a := range areas {
		if !seenArea[a] {
			seenArea[a] = true
			areaCodes = append(areaCodes, a)
		}
	}

	var data domain.ReferenceData
	if data.Carriers, err = s.reference.ListCarriers(ctx); err != nil {
		return nil, nil, fail("carriers", err)
	}
	if data.FeeRules, err = s.reference.ListFeeRules(ctx, areaCodes); err != nil {
		return nil, nil, fail("fee rules", err)
	}
	if data.Capacities, err = s.reference.ListCapacities(ctx); err != nil {
		return nil, nil, fail("capacities", err)
	}
	if data.SpecialCapacities, err = s.reference.ListSpecialCapacities(ctx, shipDates); err != nil {
		return nil, nil, fail("special capacities", err)
	}
	horizon := last.AddDate(0, 0, s.settings.MaxLeadTimeSpan)
	if data.Holidays, err = s.reference.ListHolidays(ctx, first, horizon); err != nil {
		return nil, nil, fail("holidays", err)
	}
	if data.Branches, err = s.reference.ListBranches(ctx, s.settings.ShipOrigin); err != nil {
		return nil, nil, fail("branches", err)
	}
	if data.SpecialLeadTimes, err = s.reference.ListSpecialLeadTimes(ctx, shipDates); err != nil {
		return nil, nil, fail("special lead times", err)
	}

	return domain.NewReferenceContext(data, s.settings.ShipOrigin, s.settings.MaxLeadTimeSpan), areas, nil
}

// BatchSelect runs SelectCarriers for each picking in order. Infrastructure
// errors of one picking are reported in its result and do not stop the batch.
func (s *CarrierSelectionService) BatchSelect(ctx context.Context, cmd BatchSelectCommand) *BatchCarrierSelectionResponse {
	batch := &BatchCarrierSelectionResponse{
		Results:        make([]CarrierSelectionResponse, 0, len(cmd.PickingIDs)),
		FailedPickings: []string{},
	}

	for _, id := range cmd.PickingIDs {
		resp, err := s.SelectCarriers(ctx, SelectCarriersCommand{PickingID: id})
		if err != nil {
			s.logger.WithError(err).Error("Picking failed in batch", "pickingId", id)
		}
		batch.Results = append(batch.Results, *resp)
		if resp.Success {
			batch.Success = true
		} else {
			batch.FailedPickings = append(batch.FailedPickings, id)
		}
	}

	batch.Message = fmt.Sprintf("processed %d pickings, %d failed", len(cmd.PickingIDs), len(batch.FailedPickings))
	s.logger.Info("Batch carrier selection finished",
		"pickings", len(cmd.PickingIDs),
		"failed", len(batch.FailedPickings),
		"waybills", batch.WaybillCount(),
	)
	return batch
}
