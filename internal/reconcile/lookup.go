package reconcile

import "context"

// Result is what the partner reports for one supplier reference. Found is
// false when the call succeeded but the partner has no such reservation.
type Result struct {
	Found  bool
	Status string
	ID     string
}

// Lookup queries the reconciliation partner. Implementations must tolerate
// repeated calls for the same reference.
//
//go:generate mockgen -destination=mocks/mock_lookup.go -source=lookup.go Lookup
type Lookup interface {
	Lookup(ctx context.Context, supplierRef string) (Result, error)
}
