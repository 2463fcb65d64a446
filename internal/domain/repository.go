package domain

import (
	"context"
	"time"
)

// ReferenceRepository reads the read-only master tables
type ReferenceRepository interface {
	// ListCarriers returns every carrier ordered by code
	ListCarriers(ctx context.Context) ([]Carrier, error)

	// FindProducts returns the products found for codes, keyed by code
	FindProducts(ctx context.Context, codes []string) (map[string]Product, error)

	// FindRegions maps normalised postal codes to region codes
	FindRegions(ctx context.Context, postalCodes []string) (map[string]string, error)

	// FindAreas maps region codes to transportation area codes
	FindAreas(ctx context.Context, regionCodes []string) (map[string]string, error)

	// ListFeeRules returns all carriers' fee rules for the areas
	ListFeeRules(ctx context.Context, areaCodes []string) ([]FeeRule, error)

	// ListCapacities returns the general capacity records
	ListCapacities(ctx context.Context) ([]Capacity, error)

	// ListSpecialCapacities returns capacity overrides on the dates
	ListSpecialCapacities(ctx context.Context, dates []time.Time) ([]SpecialCapacity, error)

	// ListHolidays returns calendar entries in [from, to]
	ListHolidays(ctx context.Context, from, to time.Time) ([]Holiday, error)

	// ListBranches returns branches for a ship origin
	ListBranches(ctx context.Context, shipOrigin string) ([]CarrierBranch, error)

	// ListSpecialLeadTimes returns lead-time overrides for the ship dates
	ListSpecialLeadTimes(ctx context.Context, shipDates []time.Time) ([]SpecialLeadTime, error)
}

// PickingRepository reads pickings and their orders
type PickingRepository interface {
	FindPicking(ctx context.Context, pickingID string) (*Picking, error)
	FindOrders(ctx context.Context, orderIDs []string) ([]OrderHeader, error)
	FindPreviousCarrier(ctx context.Context, customerCode, sentinel string) (string, error)
	ListPickings(ctx context.Context, query PickingQuery) ([]PickingSummary, int64, error)
}

// SelectionRepository persists one waybill decision atomically
type SelectionRepository interface {
	SaveSelection(ctx context.Context, selection *CarrierSelection) (*SelectionResult, error)
}
