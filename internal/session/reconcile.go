package session

import (
	"context"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/model"
	"dossier-engine/internal/reconcile"
)

// triggerReconcile arms the debounced automatic check when an item
// qualifies. One trigger yields at most one lookup.
func (s *Session) triggerReconcile() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	_, ok := reconcile.Select(s.d.TripItems, s.deps.Partner)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.sched.Schedule(s.bgCtx, s.runAutoReconcile)
}

func (s *Session) runAutoReconcile(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	item, ok := reconcile.Select(s.d.TripItems, s.deps.Partner)
	s.mu.Unlock()
	if !ok {
		return
	}
	out := s.recon.Check(ctx, item.ID, item.SupplierRef)
	if ctx.Err() != nil {
		return
	}
	s.applyOutcome(ctx, out)
}

// Resync is the manual path. It runs regardless of the item's current status.
func (s *Session) Resync(ctx context.Context, itemID string) (reconcile.Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return reconcile.Outcome{}, ErrClosed
	}
	item, ok := model.FindByID(s.d.TripItems, itemID)
	s.mu.Unlock()
	if !ok {
		return reconcile.Outcome{}, apperr.NotFound("session.resync", itemID, model.ErrNotFound)
	}
	if item.SupplierRef == "" {
		return reconcile.Outcome{}, apperr.Validation("session.resync", "trip item has no supplier reference")
	}
	out := s.recon.Check(ctx, item.ID, item.SupplierRef)
	if !s.applyOutcome(ctx, out) {
		return out, apperr.NotFound("session.resync", itemID, model.ErrNotFound)
	}
	return out, nil
}

// LastOutcome returns the most recent reconciliation outcome, if any.
func (s *Session) LastOutcome() (reconcile.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastOutcome == nil {
		return reconcile.Outcome{}, false
	}
	return *s.lastOutcome, true
}

func (s *Session) applyOutcome(ctx context.Context, out reconcile.Outcome) bool {
	var applied bool
	err := s.mutate(ctx, func(d *model.Dossier) error {
		applied = s.recon.Apply(d, out)
		if applied {
			o := out
			s.lastOutcome = &o
		}
		return nil
	})
	if err != nil {
		return false
	}
	if out.Kind == reconcile.KindFailed {
		s.log.Warn("reconciliation lookup failed", "itemId", out.ItemID, "supplierRef", out.SupplierRef, "error", out.Err)
	}
	return applied
}
