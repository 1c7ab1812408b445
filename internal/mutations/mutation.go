package mutations

import (
	"context"

	"dossier-engine/internal/model"
	"dossier-engine/internal/session"
)

// MutationHandler defines the contract for all mutation implementations.
// Validate checks the request without touching the dossier; Apply runs the
// session operation and reports what happened.
type MutationHandler interface {
	Validate(state *State, mutation *model.Mutation) []model.CalculationMessage
	Apply(ctx context.Context, state *State, mutation *model.Mutation) []model.CalculationMessage
}

// State is threaded through one batch. Session stays nil until a handler
// opens or creates a dossier.
type State struct {
	Sessions *session.Registry
	Operator session.Operator
	Session  *session.Session

	refs map[string]string
}

func NewState(sessions *session.Registry, op session.Operator) *State {
	return &State{Sessions: sessions, Operator: op, refs: make(map[string]string)}
}

// Situation is the current dossier and summary, or an empty situation when
// no dossier is attached yet.
func (s *State) Situation() model.Situation {
	if s.Session == nil {
		return model.Situation{}
	}
	return s.Session.Situation()
}

// Ref kinds remembered between mutations of one batch, so a later mutation
// may omit the id of an entity created earlier in the same batch.
const (
	refPassenger   = "passenger"
	refItem        = "item"
	refPayment     = "payment"
	refCheck       = "check"
	refInstallment = "installment"
)

func (s *State) remember(kind, id string) {
	s.refs[kind] = id
}

func (s *State) resolve(kind, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s.refs[kind]
}
