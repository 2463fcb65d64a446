package domain

import "errors"

// Selection errors
var (
	ErrPickingNotFound     = errors.New("picking not found")
	ErrNoOrders            = errors.New("no orders found for picking")
	ErrAllOrdersAssigned   = errors.New("all orders already have carriers assigned")
	ErrEmptyShipment       = errors.New("shipment has no parcels, volume or weight")
	ErrAreaNotFound        = errors.New("no transportation area for region")
	ErrNoEligibleCarrier   = errors.New("no eligible carrier")
	ErrFeeUndefined        = errors.New("no applicable fee rule")
	ErrLeadTimeUndefined   = errors.New("lead time undefined")
	ErrCapacityExceeded    = errors.New("carrier capacity exceeded")
	ErrPersistenceFailed   = errors.New("failed to persist carrier selection")
	ErrInvalidPickingID    = errors.New("invalid picking id")
	ErrInvalidFeeType      = errors.New("invalid fee type")
	ErrReferenceDataFailed = errors.New("failed to load reference data")
)
