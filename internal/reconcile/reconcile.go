// Package reconcile keeps one trip item's partner-reported status in sync
// with the partner's reservation system.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dossier-engine/internal/audit"
	"dossier-engine/internal/model"
)

const (
	ActionSyncFound    = "Sinhronizacija Statusa"
	ActionSyncNotFound = "Rezervacija Nije Pronađena"
	ActionSyncFailed   = "Greška Sinhronizacije"
)

type Kind int

const (
	KindFound Kind = iota + 1
	KindNotFound
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindFound:
		return "found"
	case KindNotFound:
		return "not_found"
	case KindFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of one reconciliation attempt. Suggested carries the
// dossier status implied by the partner status; it is reported, never applied.
type Outcome struct {
	ItemID       string
	SupplierRef  string
	Kind         Kind
	Status       string
	Key          string
	Err          error
	Suggested    model.Status
	HasSuggested bool
}

// Select returns the first item eligible for automatic reconciliation with
// the named partner.
func Select(items []model.TripItem, partner string) (model.TripItem, bool) {
	p := strings.ToLower(strings.TrimSpace(partner))
	if p == "" {
		return model.TripItem{}, false
	}
	for _, it := range items {
		if !strings.Contains(strings.ToLower(it.Supplier), p) {
			continue
		}
		if strings.TrimSpace(it.SupplierRef) == "" {
			continue
		}
		if it.SolvexStatus == "" || it.SolvexStatus == StatusChecking {
			return it, true
		}
	}
	return model.TripItem{}, false
}

type Reconciler struct {
	lookup  Lookup
	partner string
	audit   *audit.Recorder
	tracer  trace.Tracer
}

func New(lookup Lookup, partner string, rec *audit.Recorder) *Reconciler {
	return &Reconciler{
		lookup:  lookup,
		partner: partner,
		audit:   rec,
		tracer:  otel.Tracer("dossier-engine/reconcile"),
	}
}

func (r *Reconciler) Partner() string { return r.partner }

// Check performs the partner lookup for one item. It never fails: transport
// errors come back as a KindFailed outcome.
func (r *Reconciler) Check(ctx context.Context, itemID, supplierRef string) Outcome {
	ctx, span := r.tracer.Start(ctx, "reconcile.lookup",
		trace.WithAttributes(
			attribute.String("reconcile.partner", r.partner),
			attribute.String("reconcile.supplier_ref", supplierRef),
		))
	defer span.End()

	out := Outcome{ItemID: itemID, SupplierRef: supplierRef}
	if r.lookup == nil {
		out.Kind = KindFailed
		out.Err = errors.New("no reconciliation partner configured")
		span.SetStatus(codes.Error, out.Err.Error())
		return out
	}
	res, err := r.lookup.Lookup(ctx, supplierRef)
	switch {
	case err != nil:
		out.Kind = KindFailed
		out.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !res.Found:
		out.Kind = KindNotFound
	default:
		out.Kind = KindFound
		out.Status = res.Status
		out.Key = res.ID
		out.Suggested, out.HasSuggested = MapExternalStatus(res.Status)
	}
	span.SetAttributes(attribute.String("reconcile.outcome", out.Kind.String()))
	return out
}

// Apply writes the outcome onto its trip item and logs it. It reports false
// when the item is gone, in which case nothing is written.
func (r *Reconciler) Apply(d *model.Dossier, out Outcome) bool {
	next, err := model.ReplaceByID(d.TripItems, out.ItemID, func(it model.TripItem) (model.TripItem, error) {
		c := it.Clone()
		switch out.Kind {
		case KindFound:
			c.SolvexStatus = out.Status
			c.SolvexKey = out.Key
		case KindNotFound:
			c.SolvexStatus = StatusNotFound
		default:
			c.SolvexStatus = StatusError
		}
		return c, nil
	})
	if err != nil {
		return false
	}
	d.TripItems = next

	switch out.Kind {
	case KindFound:
		r.audit.Record(d, ActionSyncFound,
			fmt.Sprintf("%s rezervacija %s: status \"%s\", ID %s.", r.partner, out.SupplierRef, out.Status, out.Key),
			model.SeveritySuccess)
	case KindNotFound:
		r.audit.Record(d, ActionSyncNotFound,
			fmt.Sprintf("%s rezervacija %s nije pronađena.", r.partner, out.SupplierRef),
			model.SeverityDanger)
	default:
		msg := "nepoznata greška"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		r.audit.Record(d, ActionSyncFailed,
			fmt.Sprintf("Greška pri komunikaciji sa %s API-jem za %s: %s", r.partner, out.SupplierRef, msg),
			model.SeverityDanger)
	}
	return true
}

// Sync is Check followed by Apply for callers that own d for the whole call.
func (r *Reconciler) Sync(ctx context.Context, d *model.Dossier, itemID string) (Outcome, bool) {
	it, ok := model.FindByID(d.TripItems, itemID)
	if !ok {
		return Outcome{ItemID: itemID}, false
	}
	out := r.Check(ctx, itemID, it.SupplierRef)
	return out, r.Apply(d, out)
}
