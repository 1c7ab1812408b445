package engine

import (
	"context"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"dossier-engine/internal/ledger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/session"
	"dossier-engine/internal/store"
)

type seqNumberer struct{ n int }

func (s *seqNumberer) Next(context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("Ref - %07d/2026", s.n), nil
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	guard, err := ledger.NewGuard("ADMIN2026", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	reg := session.NewRegistry(session.Deps{
		Store:     store.NewMemory(),
		Numbering: &seqNumberer{},
		Guard:     guard,
		Partner:   "Solvex",
	})
	t.Cleanup(reg.CloseAll)
	return New(reg, session.Operator{Name: "Operater", Level: 6}, nil)
}

func mutation(id, name, props string) model.Mutation {
	return model.Mutation{
		MutationID:             id,
		MutationDefinitionName: name,
		ActualAt:               "2026-03-14",
		MutationProperties:     json.RawMessage(props),
	}
}

func request(muts ...model.Mutation) *model.CalculationRequest {
	return &model.CalculationRequest{
		TenantID:                "olympic",
		Operator:                model.Operator{Name: "Jelena", Level: 7},
		CalculationInstructions: model.CalculationInstructions{Mutations: muts},
	}
}

func TestPaidDossierBecomesActive(t *testing.T) {
	e := newEngine(t)
	resp := e.Process(context.Background(), request(
		mutation("m1", "create_dossier", `{}`),
		mutation("m2", "set_booker", `{"booker":{"fullName":"Ana Jović"}}`),
		mutation("m3", "add_trip_item", `{"type":"Smestaj"}`),
		mutation("m4", "update_trip_item", `{"item":{"subject":"Hotel Blue Pearl","bruttoPrice":1850,"netPrice":1600}}`),
		mutation("m5", "add_payment", `{}`),
		mutation("m6", "set_payment_amount", `{"amount":500}`),
		mutation("m7", "commit_payment", `{}`),
		mutation("m8", "save_dossier", `{}`),
	))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s: %+v", resp.CalculationMetadata.CalculationOutcome, resp.CalculationResult.Messages)
	}
	if resp.CalculationMetadata.TenantID != "olympic" {
		t.Fatalf("expected tenant_id olympic, got %s", resp.CalculationMetadata.TenantID)
	}
	if len(resp.CalculationResult.Mutations) != 8 {
		t.Fatalf("expected 8 processed mutations, got %d", len(resp.CalculationResult.Mutations))
	}

	sit := resp.CalculationResult.EndSituation.Situation
	if sit.Dossier == nil {
		t.Fatal("expected dossier in end situation")
	}
	if sit.Dossier.Status != model.StatusActive {
		t.Fatalf("expected status Active, got %s", sit.Dossier.Status)
	}
	if sit.Dossier.ResCode == nil || *sit.Dossier.ResCode != "Ref - 0000001/2026" {
		t.Fatalf("expected reservation number, got %v", sit.Dossier.ResCode)
	}
	if sit.Summary == nil || sit.Summary.Balance != 1350 || sit.Summary.TotalProfit != 250 {
		t.Fatalf("unexpected summary %+v", sit.Summary)
	}
	if sit.Dossier.Logs[0].Operator != "Jelena" {
		t.Fatalf("expected entries attributed to Jelena, got %s", sit.Dossier.Logs[0].Operator)
	}

	if resp.CalculationResult.InitialSituation.Situation.Dossier != nil {
		t.Fatal("expected initial situation dossier to be null")
	}
	if resp.CalculationResult.EndSituation.MutationID != "m8" || resp.CalculationResult.EndSituation.MutationIndex != 7 {
		t.Fatalf("unexpected end_situation reference %s/%d",
			resp.CalculationResult.EndSituation.MutationID, resp.CalculationResult.EndSituation.MutationIndex)
	}

	var ops []map[string]interface{}
	if err := json.Unmarshal(resp.CalculationResult.Patch, &ops); err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0]["path"] != "/dossier" || ops[1]["path"] != "/summary" {
		t.Fatalf("expected dossier replace and summary add, got %v", ops)
	}
}

func TestCreateDossierAlreadyExists(t *testing.T) {
	e := newEngine(t)
	resp := e.Process(context.Background(), request(
		mutation("m1", "create_dossier", `{}`),
		mutation("m2", "create_dossier", `{}`),
	))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	msgs := resp.CalculationResult.Messages
	if last := msgs[len(msgs)-1]; last.Code != "DOSSIER_ALREADY_EXISTS" || last.Level != model.LevelCritical {
		t.Fatalf("expected DOSSIER_ALREADY_EXISTS, got %+v", last)
	}
	if len(resp.CalculationResult.Mutations) != 2 {
		t.Fatalf("expected 2 processed mutations, got %d", len(resp.CalculationResult.Mutations))
	}
	if resp.CalculationResult.EndSituation.Situation.Dossier == nil {
		t.Fatal("expected dossier from first mutation in end_situation")
	}
	if resp.CalculationResult.EndSituation.MutationID != "m1" {
		t.Fatalf("end_situation should reference last successful mutation")
	}
}

func TestSecondBatchContinuesDossier(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	first := e.Process(ctx, request(mutation("m1", "create_dossier", `{}`)))
	key := first.CalculationResult.EndSituation.Situation.Dossier.CisCode

	next := mutation("m2", "set_notes", `{"notes":{"internal":"VIP"}}`)
	next.DossierID = key
	resp := e.Process(ctx, request(next))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %+v", resp.CalculationResult.Messages)
	}
	if resp.CalculationResult.InitialSituation.Situation.Dossier == nil {
		t.Fatal("expected initial situation to hold the open dossier")
	}
	if got := resp.CalculationResult.EndSituation.Situation.Dossier.Notes.Internal; got != "VIP" {
		t.Fatalf("expected notes to be set, got %q", got)
	}
	var inverse []map[string]interface{}
	if err := json.Unmarshal(resp.CalculationResult.InversePatch, &inverse); err != nil {
		t.Fatal(err)
	}
	if len(inverse) == 0 {
		t.Fatal("expected an inverse patch")
	}
}

func TestVoidWithWrongSecretStopsBatch(t *testing.T) {
	e := newEngine(t)
	resp := e.Process(context.Background(), request(
		mutation("m1", "create_dossier", `{}`),
		mutation("m2", "add_payment", `{}`),
		mutation("m3", "void_payment", `{"secret":"guess"}`),
		mutation("m4", "set_status", `{"status":"Offer"}`),
	))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	msgs := resp.CalculationResult.Messages
	if last := msgs[len(msgs)-1]; last.Code != "WRONG_SECRET" {
		t.Fatalf("expected WRONG_SECRET, got %+v", last)
	}
	if len(resp.CalculationResult.Mutations) != 3 {
		t.Fatalf("expected processing to stop at the void, got %d", len(resp.CalculationResult.Mutations))
	}
	d := resp.CalculationResult.EndSituation.Situation.Dossier
	if d.Logs[0].Action != ledger.ActionVoidRejected || d.Logs[0].Severity != model.SeverityWarning {
		t.Fatalf("expected the rejected void to be logged, got %+v", d.Logs[0])
	}
	if d.Status != model.StatusRequest {
		t.Fatalf("expected status unchanged, got %s", d.Status)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		muts []model.Mutation
		code string
	}{
		{"unknown mutation", []model.Mutation{mutation("m1", "apply_indexation", `{}`)}, "UNKNOWN_MUTATION"},
		{"no dossier", []model.Mutation{mutation("m1", "set_status", `{"status":"Offer"}`)}, "DOSSIER_NOT_FOUND"},
		{"bad status", []model.Mutation{
			mutation("m1", "create_dossier", `{}`),
			mutation("m2", "set_status", `{"status":"Archived"}`),
		}, "INVALID_STATUS"},
		{"bad properties", []model.Mutation{
			mutation("m1", "create_dossier", `{}`),
			mutation("m2", "add_trip_item", `{"type":`),
		}, "INVALID_PROPERTIES"},
		{"missing payment ref", []model.Mutation{
			mutation("m1", "create_dossier", `{}`),
			mutation("m2", "commit_payment", `{}`),
		}, "MISSING_PAYMENT_ID"},
		{"save without booker", []model.Mutation{
			mutation("m1", "create_dossier", `{}`),
			mutation("m2", "save_dossier", `{}`),
		}, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newEngine(t).Process(context.Background(), request(tt.muts...))
			if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
				t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
			}
			msgs := resp.CalculationResult.Messages
			if got := msgs[len(msgs)-1].Code; got != tt.code {
				t.Fatalf("expected %s, got %s (%+v)", tt.code, got, msgs)
			}
		})
	}
}

func TestUnknownDossier(t *testing.T) {
	m := mutation("m1", "set_notes", `{}`)
	m.DossierID = "CIS-000000000"
	resp := newEngine(t).Process(context.Background(), request(m))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "DOSSIER_NOT_FOUND" {
		t.Fatalf("expected DOSSIER_NOT_FOUND, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if resp.CalculationResult.EndSituation.Situation.Dossier != nil {
		t.Fatal("expected no dossier")
	}
}

func TestEmptyBatch(t *testing.T) {
	e := newEngine(t)
	resp := e.Process(context.Background(), request())

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	msgs := resp.CalculationResult.Messages
	if len(msgs) != 1 || msgs[0].Code != "NO_MUTATIONS" || msgs[0].Level != model.LevelCritical {
		t.Fatalf("expected a single NO_MUTATIONS message, got %+v", msgs)
	}
	if len(resp.CalculationResult.Mutations) != 0 {
		t.Fatalf("expected no processed mutations, got %d", len(resp.CalculationResult.Mutations))
	}
}
