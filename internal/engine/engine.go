package engine

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/jsonpatch"
	"dossier-engine/internal/logger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/mutations"
	"dossier-engine/internal/session"
)

type Engine struct {
	sessions *session.Registry
	operator session.Operator
	log      *logger.Logger
	now      func() time.Time
}

// New builds an engine over the process-wide session registry. def is the
// operator used when a request names none.
func New(sessions *session.Registry, def session.Operator, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{sessions: sessions, operator: def, log: log.With("component", "engine"), now: time.Now}
}

// Process applies a mutation batch to one dossier. It stops at the first
// CRITICAL message; mutations already applied stay applied.
func (e *Engine) Process(ctx context.Context, req *model.CalculationRequest) *model.CalculationResponse {
	start := e.now()

	op := session.Operator{Name: req.Operator.Name, Level: req.Operator.Level}
	if op.Name == "" {
		op = e.operator
	}
	state := mutations.NewState(e.sessions, op)

	var allMessages []model.CalculationMessage
	var processedMutations []model.ProcessedMutation
	outcome := model.OutcomeSuccess
	hasCritical := false

	if len(req.CalculationInstructions.Mutations) == 0 {
		msg := critical(0, "NO_MUTATIONS", "The request contains no mutations")
		return e.respond(req, start, model.OutcomeFailure,
			[]model.CalculationMessage{msg}, nil, model.SituationEnvelope{}, model.Situation{})
	}
	first := req.CalculationInstructions.Mutations[0]
	lastMutationID := first.MutationID
	lastMutationIndex := 0
	lastActualAt := first.ActualAt

	if first.DossierID != "" {
		s, err := e.sessions.Acquire(ctx, first.DossierID, op)
		if err != nil {
			code := "DOSSIER_NOT_FOUND"
			if !apperr.IsCode(err, apperr.CodeNotFound) {
				code = "DOSSIER_UNAVAILABLE"
			}
			msg := critical(len(allMessages), code, err.Error())
			e.log.Warn("dossier acquire failed", "dossierId", first.DossierID, "error", err)
			return e.respond(req, start, model.OutcomeFailure,
				[]model.CalculationMessage{msg},
				[]model.ProcessedMutation{{Mutation: first, CalculationMessageIndexes: []int{msg.ID}}},
				model.SituationEnvelope{MutationID: first.MutationID, ActualAt: first.ActualAt},
				model.Situation{})
		}
		state.Session = s
	}
	initial := state.Situation()

	for i, mut := range req.CalculationInstructions.Mutations {
		if mut.DossierID != "" && state.Session != nil && mut.DossierID != state.Session.Key() {
			msg := critical(len(allMessages), "DOSSIER_MISMATCH",
				fmt.Sprintf("Mutation targets %s but the batch is bound to %s", mut.DossierID, state.Session.Key()))
			allMessages = append(allMessages, msg)
			processedMutations = append(processedMutations, model.ProcessedMutation{Mutation: mut, CalculationMessageIndexes: []int{msg.ID}})
			outcome = model.OutcomeFailure
			break
		}

		handler, ok := mutations.Get(mut.MutationDefinitionName)
		if !ok {
			msg := critical(len(allMessages), "UNKNOWN_MUTATION", fmt.Sprintf("Unknown mutation: %s", mut.MutationDefinitionName))
			allMessages = append(allMessages, msg)
			processedMutations = append(processedMutations, model.ProcessedMutation{Mutation: mut, CalculationMessageIndexes: []int{msg.ID}})
			outcome = model.OutcomeFailure
			break
		}

		var msgIndexes []int
		collect := func(msgs []model.CalculationMessage) {
			for _, m := range msgs {
				m.ID = len(allMessages)
				allMessages = append(allMessages, m)
				msgIndexes = append(msgIndexes, m.ID)
				if m.Level == model.LevelCritical {
					hasCritical = true
				}
			}
		}

		collect(handler.Validate(state, &mut))
		if !hasCritical {
			collect(handler.Apply(ctx, state, &mut))
		}

		processedMutations = append(processedMutations, model.ProcessedMutation{
			Mutation:                  mut,
			CalculationMessageIndexes: msgIndexes,
		})

		if hasCritical {
			outcome = model.OutcomeFailure
			e.log.Info("batch stopped", "mutation", mut.MutationDefinitionName, "index", i)
			break
		}

		lastMutationID = mut.MutationID
		lastMutationIndex = i
		lastActualAt = mut.ActualAt
	}

	end := model.SituationEnvelope{
		MutationID:    lastMutationID,
		MutationIndex: lastMutationIndex,
		ActualAt:      lastActualAt,
		Situation:     state.Situation(),
	}
	return e.respond(req, start, outcome, allMessages, processedMutations, end, initial)
}

func (e *Engine) respond(req *model.CalculationRequest, start time.Time, outcome string, msgs []model.CalculationMessage,
	processed []model.ProcessedMutation, end model.SituationEnvelope, initial model.Situation) *model.CalculationResponse {
	if msgs == nil {
		msgs = []model.CalculationMessage{}
	}
	if processed == nil {
		processed = []model.ProcessedMutation{}
	}
	var initialAt string
	if muts := req.CalculationInstructions.Mutations; len(muts) > 0 {
		initialAt = muts[0].ActualAt
	}
	patch, inverse, err := situationPatches(initial, end.Situation)
	if err != nil {
		e.log.Error("situation patch failed", "error", err)
		patch, inverse = emptyPatch, emptyPatch
	}

	now := e.now().UTC()
	return &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			TenantID:               req.TenantID,
			CalculationStartedAt:   start.UTC().Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  now.Sub(start).Milliseconds(),
			CalculationOutcome:     outcome,
		},
		CalculationResult: model.CalculationResult{
			Messages:     msgs,
			Mutations:    processed,
			EndSituation: end,
			InitialSituation: model.InitialSituation{
				ActualAt:  initialAt,
				Situation: initial,
			},
			Patch:        patch,
			InversePatch: inverse,
		},
	}
}

func critical(id int, code, message string) model.CalculationMessage {
	return model.CalculationMessage{ID: id, Level: model.LevelCritical, Code: code, Message: message}
}

var emptyPatch = json.RawMessage("[]")

// situationPatches returns the RFC 6902 patches from the initial situation to
// the end one and back.
func situationPatches(from, to model.Situation) (fwd, bwd json.RawMessage, err error) {
	a, err := toGeneric(from)
	if err != nil {
		return nil, nil, err
	}
	b, err := toGeneric(to)
	if err != nil {
		return nil, nil, err
	}
	f, r := jsonpatch.DiffBoth(a, b, "")
	if fwd, err = marshalOps(f); err != nil {
		return nil, nil, err
	}
	if bwd, err = marshalOps(r); err != nil {
		return nil, nil, err
	}
	return fwd, bwd, nil
}

func marshalOps(ops []jsonpatch.Op) (json.RawMessage, error) {
	if len(ops) == 0 {
		return emptyPatch, nil
	}
	return json.Marshal(ops)
}

func toGeneric(s model.Situation) (interface{}, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
