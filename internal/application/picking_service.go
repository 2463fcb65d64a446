package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/api"
	"github.com/wms-platform/carrier-selection/pkg/logging"
)

// PickingService serves the read-only picking browse list
type PickingService struct {
	repo     domain.PickingRepository
	sentinel string
	logger   *logging.Logger
}

// NewPickingService creates a new PickingService
func NewPickingService(repo domain.PickingRepository, sentinel string, logger *logging.Logger) *PickingService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PickingService{repo: repo, sentinel: sentinel, logger: logger.WithComponent("picking-browse")}
}

// ListPickings returns one page of pickings joined with customer and staff names
func (s *PickingService) ListPickings(ctx context.Context, query ListPickingsQuery) (*PickingListResponse, error) {
	if query.Limit <= 0 {
		query.Limit = api.DefaultLimit
	}
	if query.Limit > api.MaxLimit {
		query.Limit = api.MaxLimit
	}
	if query.Skip < 0 {
		query.Skip = 0
	}

	summaries, total, err := s.repo.ListPickings(ctx, domain.PickingQuery{
		Skip:           query.Skip,
		Limit:          query.Limit,
		Query:          query.Query,
		UnassignedOnly: query.UnassignedOnly,
		Sentinel:       s.sentinel,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list pickings", "query", query.Query)
		return nil, fmt.Errorf("failed to list pickings: %w", err)
	}

	resp := &PickingListResponse{
		Pickings: make([]PickingSummaryDTO, 0, len(summaries)),
		Total:    total,
		Page:     query.Skip/query.Limit + 1,
		Size:     query.Limit,
	}
	for _, summary := range summaries {
		resp.Pickings = append(resp.Pickings, ToPickingSummaryDTO(summary))
	}
	return resp, nil
}
