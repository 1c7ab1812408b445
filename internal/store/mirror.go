package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Mirror writes to a local and a remote gateway in parallel and reads from
// local first, falling back to remote.
type Mirror struct {
	local  Gateway
	remote Gateway
}

func NewMirror(local, remote Gateway) *Mirror {
	return &Mirror{local: local, remote: remote}
}

func (m *Mirror) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := m.local.Load(ctx, key)
	if err == nil {
		return raw, nil
	}
	raw, rerr := m.remote.Load(ctx, key)
	if rerr == nil {
		return raw, nil
	}
	if errors.Is(err, ErrNotFound) && errors.Is(rerr, ErrNotFound) {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("mirror load %s: %w", key, errors.Join(err, rerr))
}

// Save succeeds only when both sides accepted the blob.
func (m *Mirror) Save(ctx context.Context, key string, value []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := m.local.Save(gctx, key, value); err != nil {
			return fmt.Errorf("local: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := m.remote.Save(gctx, key, value); err != nil {
			return fmt.Errorf("remote: %w", err)
		}
		return nil
	})
	return g.Wait()
}

var _ Gateway = (*Mirror)(nil)
