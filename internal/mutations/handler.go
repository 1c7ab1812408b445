package mutations

import (
	"context"
	"strings"

	"dossier-engine/internal/model"
)

// op adapts one session operation to MutationHandler. P is the shape of the
// mutation properties; check adds operation-specific validation.
type op[P any] struct {
	check func(state *State, p *P) []model.CalculationMessage
	apply func(ctx context.Context, state *State, p *P) ([]model.CalculationMessage, error)
}

func (h op[P]) Validate(state *State, mutation *model.Mutation) []model.CalculationMessage {
	if state.Session == nil {
		return []model.CalculationMessage{critical("DOSSIER_NOT_FOUND", "No dossier is open")}
	}
	var p P
	if msg := decodeProps(mutation, &p); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	if h.check == nil {
		return nil
	}
	return h.check(state, &p)
}

func (h op[P]) Apply(ctx context.Context, state *State, mutation *model.Mutation) []model.CalculationMessage {
	var p P
	if msg := decodeProps(mutation, &p); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	msgs, err := h.apply(ctx, state, &p)
	if err != nil {
		msgs = append(msgs, fromError(err))
	}
	if saveErr := state.Session.AutosaveErr(); saveErr != nil && err == nil {
		msgs = append(msgs, warning("AUTOSAVE_FAILED", saveErr.Error()))
	}
	return msgs
}

func (h op[P]) withCheck(check func(state *State, p *P) []model.CalculationMessage) op[P] {
	h.check = check
	return h
}

// exec wraps an operation that returns only an error.
func exec[P any](fn func(ctx context.Context, state *State, p *P) error) op[P] {
	return op[P]{apply: func(ctx context.Context, state *State, p *P) ([]model.CalculationMessage, error) {
		return nil, fn(ctx, state, p)
	}}
}

func requireRef(state *State, kind, explicit, field string) []model.CalculationMessage {
	if state.resolve(kind, explicit) == "" {
		return []model.CalculationMessage{critical("MISSING_"+strings.ToUpper(field), field+" is required")}
	}
	return nil
}
