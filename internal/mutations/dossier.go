package mutations

import (
	"context"
	"fmt"

	"dossier-engine/internal/model"
	"dossier-engine/internal/reconcile"
	"dossier-engine/internal/session"
)

type CreateDossierHandler struct{}

func (h *CreateDossierHandler) Validate(state *State, mutation *model.Mutation) []model.CalculationMessage {
	if state.Session != nil {
		return []model.CalculationMessage{critical("DOSSIER_ALREADY_EXISTS", "A dossier is already open in this batch")}
	}
	return nil
}

func (h *CreateDossierHandler) Apply(ctx context.Context, state *State, mutation *model.Mutation) []model.CalculationMessage {
	s, err := state.Sessions.Create(ctx, state.Operator)
	if s == nil {
		return []model.CalculationMessage{fromError(err)}
	}
	state.Session = s
	msgs := []model.CalculationMessage{info("DOSSIER_CREATED", fmt.Sprintf("Dossier %s created", s.Key()))}
	if err != nil {
		msgs = append(msgs, warning("AUTOSAVE_FAILED", err.Error()))
	}
	return msgs
}

// SeedDossierHandler creates the dossier from a booked search result.
type SeedDossierHandler struct{}

func (h *SeedDossierHandler) Validate(state *State, mutation *model.Mutation) []model.CalculationMessage {
	if state.Session != nil {
		return []model.CalculationMessage{critical("DOSSIER_ALREADY_EXISTS", "A dossier is already open in this batch")}
	}
	var p session.BookingPayload
	if msg := decodeProps(mutation, &p); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	if p.Result.Name == "" {
		return []model.CalculationMessage{critical("INVALID_BOOKING", "selectedResult.name is required")}
	}
	return nil
}

func (h *SeedDossierHandler) Apply(ctx context.Context, state *State, mutation *model.Mutation) []model.CalculationMessage {
	var p session.BookingPayload
	if msg := decodeProps(mutation, &p); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	s, err := state.Sessions.Seed(ctx, state.Operator, p)
	if s == nil {
		return []model.CalculationMessage{fromError(err)}
	}
	state.Session = s
	snap := s.Snapshot()
	if len(snap.TripItems) > 0 {
		state.remember(refItem, snap.TripItems[0].ID)
	}
	msgs := []model.CalculationMessage{info("DOSSIER_CREATED", fmt.Sprintf("Dossier %s created from search", s.Key()))}
	if err != nil {
		msgs = append(msgs, warning("AUTOSAVE_FAILED", err.Error()))
	}
	return msgs
}

type statusProps struct {
	Status model.Status `json:"status"`
}

type resyncProps struct {
	ItemID string `json:"item_id"`
}

var setStatus = exec(func(ctx context.Context, state *State, p *statusProps) error {
	return state.Session.SetStatus(ctx, p.Status)
}).withCheck(func(state *State, p *statusProps) []model.CalculationMessage {
	if !p.Status.Valid() {
		return []model.CalculationMessage{critical("INVALID_STATUS", fmt.Sprintf("Unknown status %q", p.Status))}
	}
	return nil
})

var evaluateStatus = op[struct{}]{apply: func(ctx context.Context, state *State, _ *struct{}) ([]model.CalculationMessage, error) {
	changed, err := state.Session.EvaluateStatus(ctx)
	if err != nil || !changed {
		return nil, err
	}
	return []model.CalculationMessage{info("STATUS_ACTIVATED", "Dossier moved to Active after a recorded payment")}, nil
}}

var saveDossier = op[struct{}]{apply: func(ctx context.Context, state *State, _ *struct{}) ([]model.CalculationMessage, error) {
	res, err := state.Session.Save(ctx)
	if err != nil {
		return nil, err
	}
	if res.First {
		return []model.CalculationMessage{info("RESERVATION_NUMBER_ASSIGNED", res.ResCode)}, nil
	}
	return []model.CalculationMessage{info("DOSSIER_SAVED", res.ResCode)}, nil
}}

var resyncItem = op[resyncProps]{
	check: func(state *State, p *resyncProps) []model.CalculationMessage {
		return requireRef(state, refItem, p.ItemID, "item_id")
	},
	apply: func(ctx context.Context, state *State, p *resyncProps) ([]model.CalculationMessage, error) {
		out, err := state.Session.Resync(ctx, state.resolve(refItem, p.ItemID))
		if err != nil {
			return nil, err
		}
		return outcomeMessages(out), nil
	},
}

func outcomeMessages(out reconcile.Outcome) []model.CalculationMessage {
	var msgs []model.CalculationMessage
	switch out.Kind {
	case reconcile.KindFound:
		msgs = append(msgs, info("SUPPLIER_STATUS", fmt.Sprintf("%s: %s", out.SupplierRef, out.Status)))
	case reconcile.KindNotFound:
		msgs = append(msgs, warning("SUPPLIER_RESERVATION_NOT_FOUND", out.SupplierRef))
	default:
		msg := out.SupplierRef
		if out.Err != nil {
			msg = fmt.Sprintf("%s: %v", out.SupplierRef, out.Err)
		}
		msgs = append(msgs, warning("SUPPLIER_LOOKUP_FAILED", msg))
	}
	if out.HasSuggested {
		msgs = append(msgs, info("SUGGESTED_STATUS", string(out.Suggested)))
	}
	return msgs
}
