package reconcile_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossier-engine/internal/audit"
	"dossier-engine/internal/model"
	"dossier-engine/internal/reconcile"
	mock_reconcile "dossier-engine/internal/reconcile/mocks"
)

func dossierWithItems(items ...model.TripItem) *model.Dossier {
	d := &model.Dossier{CisCode: "CIS-RECON0001", TripItems: items}
	d.Backfill()
	return d
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		items  []model.TripItem
		wantID string
		wantOK bool
	}{
		{
			name:  "no partner items",
			items: []model.TripItem{{ID: "a", Supplier: "Filip Travel", SupplierRef: "1"}},
		},
		{
			name:   "case insensitive supplier match",
			items:  []model.TripItem{{ID: "a", Supplier: "SOLVEX B2B", SupplierRef: "777"}},
			wantID: "a",
			wantOK: true,
		},
		{
			name:  "empty reference is skipped",
			items: []model.TripItem{{ID: "a", Supplier: "Solvex", SupplierRef: " "}},
		},
		{
			name: "terminal status is skipped",
			items: []model.TripItem{
				{ID: "a", Supplier: "Solvex", SupplierRef: "1", SolvexStatus: "Confirmed"},
				{ID: "b", Supplier: "Solvex", SupplierRef: "2", SolvexStatus: reconcile.StatusChecking},
			},
			wantID: "b",
			wantOK: true,
		},
		{
			name:  "error sentinel is terminal",
			items: []model.TripItem{{ID: "a", Supplier: "Solvex", SupplierRef: "1", SolvexStatus: reconcile.StatusError}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reconcile.Select(tt.items, "solvex")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestReconciler_Sync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		res        reconcile.Result
		err        error
		wantKind   reconcile.Kind
		wantStatus string
		wantKey    string
		wantAction string
		wantSev    model.Severity
	}{
		{
			name:       "found",
			res:        reconcile.Result{Found: true, Status: "Confirmed", ID: "SX-99"},
			wantKind:   reconcile.KindFound,
			wantStatus: "Confirmed",
			wantKey:    "SX-99",
			wantAction: reconcile.ActionSyncFound,
			wantSev:    model.SeveritySuccess,
		},
		{
			name:       "not found",
			res:        reconcile.Result{},
			wantKind:   reconcile.KindNotFound,
			wantStatus: reconcile.StatusNotFound,
			wantAction: reconcile.ActionSyncNotFound,
			wantSev:    model.SeverityDanger,
		},
		{
			name:       "transport failure",
			err:        errors.New("connection reset"),
			wantKind:   reconcile.KindFailed,
			wantStatus: reconcile.StatusError,
			wantAction: reconcile.ActionSyncFailed,
			wantSev:    model.SeverityDanger,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := mock_reconcile.NewMockLookup(ctrl)
			lookup.EXPECT().Lookup(gomock.Any(), "777").Return(tt.res, tt.err)
			r := reconcile.New(lookup, "Solvex", audit.NewRecorder(audit.SystemOperator))
			d := dossierWithItems(
				model.TripItem{ID: "a", Supplier: "Solvex", SupplierRef: "777"},
				model.TripItem{ID: "b", Supplier: "Other", SupplierRef: "888"},
			)

			out, applied := r.Sync(context.Background(), d, "a")

			require.True(t, applied)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantStatus, d.TripItems[0].SolvexStatus)
			assert.Equal(t, tt.wantKey, d.TripItems[0].SolvexKey)
			assert.Empty(t, d.TripItems[1].SolvexStatus)
			require.Len(t, d.Logs, 1)
			assert.Equal(t, tt.wantAction, d.Logs[0].Action)
			assert.Equal(t, tt.wantSev, d.Logs[0].Severity)
			if tt.err != nil {
				assert.Contains(t, d.Logs[0].Details, "connection reset")
			}
		})
	}
}

func TestReconciler_SyncTwiceIsStable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lookup := mock_reconcile.NewMockLookup(ctrl)
	lookup.EXPECT().Lookup(gomock.Any(), "777").
		Return(reconcile.Result{Found: true, Status: "Confirmed", ID: "SX-1"}, nil).Times(2)
	r := reconcile.New(lookup, "Solvex", audit.NewRecorder(""))
	d := dossierWithItems(model.TripItem{ID: "a", Supplier: "Solvex", SupplierRef: "777"})

	first, _ := r.Sync(context.Background(), d, "a")
	snapshot := d.TripItems[0]
	second, _ := r.Sync(context.Background(), d, "a")

	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, snapshot.SolvexStatus, d.TripItems[0].SolvexStatus)
	assert.Equal(t, snapshot.SolvexKey, d.TripItems[0].SolvexKey)
	assert.Equal(t, 2, audit.Count(d, reconcile.ActionSyncFound))
	assert.True(t, second.HasSuggested)
	assert.Equal(t, model.StatusActive, second.Suggested)
}

func TestReconciler_ApplyToRemovedItem(t *testing.T) {
	r := reconcile.New(nil, "Solvex", audit.NewRecorder(""))
	d := dossierWithItems()

	ok := r.Apply(d, reconcile.Outcome{ItemID: "gone", Kind: reconcile.KindFound})

	assert.False(t, ok)
	assert.Empty(t, d.Logs)
}

func TestReconciler_NoLookupConfigured(t *testing.T) {
	r := reconcile.New(nil, "Solvex", audit.NewRecorder(""))
	out := r.Check(context.Background(), "a", "1")
	assert.Equal(t, reconcile.KindFailed, out.Kind)
	assert.Error(t, out.Err)
}

func TestMapExternalStatus(t *testing.T) {
	s, ok := reconcile.MapExternalStatus("Canceled")
	assert.True(t, ok)
	assert.Equal(t, model.StatusCanceled, s)

	s, ok = reconcile.MapExternalStatus("confirmed")
	assert.True(t, ok)
	assert.Equal(t, model.StatusActive, s)

	_, ok = reconcile.MapExternalStatus("Pending")
	assert.False(t, ok)
}

func TestScheduler(t *testing.T) {
	t.Run("fires once", func(t *testing.T) {
		s := reconcile.NewScheduler(5 * time.Millisecond)
		var n int32
		done := make(chan struct{})
		require.True(t, s.Schedule(context.Background(), func(context.Context) {
			atomic.AddInt32(&n, 1)
			close(done)
		}))
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task did not fire")
		}
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(1), atomic.LoadInt32(&n))
		assert.False(t, s.Pending())
	})

	t.Run("reschedule replaces pending task", func(t *testing.T) {
		s := reconcile.NewScheduler(30 * time.Millisecond)
		var first, second int32
		done := make(chan struct{})
		s.Schedule(context.Background(), func(context.Context) { atomic.AddInt32(&first, 1) })
		s.Schedule(context.Background(), func(context.Context) {
			atomic.AddInt32(&second, 1)
			close(done)
		})
		<-done
		time.Sleep(40 * time.Millisecond)
		assert.Zero(t, atomic.LoadInt32(&first))
		assert.Equal(t, int32(1), atomic.LoadInt32(&second))
	})

	t.Run("cancel prevents run", func(t *testing.T) {
		s := reconcile.NewScheduler(20 * time.Millisecond)
		var n int32
		s.Schedule(context.Background(), func(context.Context) { atomic.AddInt32(&n, 1) })
		assert.True(t, s.Pending())
		s.Cancel()
		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, atomic.LoadInt32(&n))
		assert.False(t, s.Schedule(context.Background(), func(context.Context) {}))
	})
}
