package session

import "context"

// Numberer issues reservation numbers. Next is called at most once per
// dossier, right before its first persisted save.
//
//go:generate mockgen -destination=mocks/mock_ports.go -source=ports.go Numberer
type Numberer interface {
	Next(ctx context.Context) (string, error)
}
