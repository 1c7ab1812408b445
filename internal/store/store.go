// Package store persists dossier blobs under a single key. Adapters only move
// bytes; the codec owns the dossier shape.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: key not found")

// Gateway reads and writes one blob by key. Concurrent saves to the same key
// are last-write-wins.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go Gateway
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
