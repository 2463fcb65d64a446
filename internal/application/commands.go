package application

// SelectCarriersCommand runs carrier selection for one picking
type SelectCarriersCommand struct {
	PickingID string
}

// BatchSelectCommand runs carrier selection for several pickings in order
type BatchSelectCommand struct {
	PickingIDs []string
}

// ListPickingsQuery represents the query for the picking browse list
type ListPickingsQuery struct {
	Skip           int
	Limit          int
	Query          string
	UnassignedOnly bool
}
