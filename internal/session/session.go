// Package session owns one dossier for the duration of an editing session.
// Every mutator applies its change, appends one audit entry, re-checks the
// automatic status rule where payments are involved, and autosaves while the
// dossier has no reservation number yet.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/audit"
	"dossier-engine/internal/docs"
	"dossier-engine/internal/finance"
	"dossier-engine/internal/ledger"
	"dossier-engine/internal/logger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/reconcile"
	"dossier-engine/internal/refdata"
	"dossier-engine/internal/store"
)

// PrivilegedLevel is the lowest operator level allowed to change the customer type.
const PrivilegedLevel = 6

const (
	ActionCreated       = "Dosije kreiran"
	ActionStatusChanged = "Status Promenjen"
)

var ErrClosed = errors.New("session is closed")

type Operator struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type Deps struct {
	Store         store.Gateway
	Numbering     Numberer
	Renderer      docs.Renderer
	Lookup        reconcile.Lookup
	Rates         *refdata.Rates
	Nationalities *refdata.Nationalities
	Guard         *ledger.Guard
	Partner       string
	Debounce      time.Duration
	Logger        *logger.Logger
	Operator      Operator
	Now           func() time.Time
}

type Session struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	d      *model.Dossier
	deps   Deps
	log    *logger.Logger
	audit  *audit.Recorder
	ledger *ledger.Ledger
	recon  *reconcile.Reconciler
	sched  *reconcile.Scheduler

	bgCtx    context.Context
	bgCancel context.CancelFunc

	closed         bool
	pendingResCode string
	autosaveErr    error
	lastOutcome    *reconcile.Outcome
}

func newSession(deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rates == nil {
		r, _ := refdata.NewRates(refdata.DefaultRates)
		deps.Rates = &r
	}
	rec := audit.NewRecorder(deps.Operator.Name)
	rec.Now = deps.Now

	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Session{
		deps:     deps,
		log:      deps.Logger.With("component", "session"),
		audit:    rec,
		ledger:   ledger.New(*deps.Rates, deps.Guard, rec).WithClock(deps.Now),
		recon:    reconcile.New(deps.Lookup, deps.Partner, rec),
		sched:    reconcile.NewScheduler(deps.Debounce),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
}

// New starts a session on a brand new dossier.
func New(deps Deps) *Session {
	s := newSession(deps)
	d := &model.Dossier{
		CisCode:         newCisCode(),
		ClientReference: fmt.Sprintf("REF-%d", rand.Intn(10000)),
	}
	d.Backfill()
	s.audit.WithOperator(audit.SystemOperator).
		Record(d, ActionCreated, fmt.Sprintf("Novi dosije %s je otvoren.", d.CisCode), model.SeverityInfo)
	s.d = d
	s.log = s.log.With("cisCode", d.CisCode)
	return s
}

// Open hydrates a persisted dossier by key.
func Open(ctx context.Context, deps Deps, key string) (*Session, error) {
	if deps.Store == nil {
		return nil, apperr.New(apperr.CodeInternal, "session.open", "no store configured", nil)
	}
	raw, err := deps.Store.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("session.open", key, err)
	}
	if err != nil {
		return nil, apperr.External("session.open", err)
	}
	d, err := store.Decode(raw)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "session.open", "stored dossier is unreadable", err)
	}
	s := newSession(deps)
	d.BackfillRates(s.deps.Rates.Rate)
	s.d = d
	s.log = s.log.With("cisCode", d.CisCode)
	return s, nil
}

func newCisCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CIS-" + raw[:9]
}

// Init runs the post-load steps: the automatic status rule, the initial
// autosave and the first reconciliation trigger.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.applyAutoStatusLocked()
	key, blob, save := s.autosavePayloadLocked()
	s.mu.Unlock()

	var err error
	if save {
		err = s.autosave(ctx, key, blob)
	}
	s.triggerReconcile()
	return err
}

// Close cancels any pending reconciliation. Later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.sched.Cancel()
	s.bgCancel()
}

func (s *Session) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CisCode
}

// Snapshot returns a deep copy of the dossier.
func (s *Session) Snapshot() *model.Dossier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Clone()
}

// Summary is recomputed on every call.
func (s *Session) Summary() model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return finance.Of(s.d)
}

func (s *Session) Situation() model.Situation {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := finance.Of(s.d)
	return model.Situation{Dossier: s.d.Clone(), Summary: &sum}
}

func (s *Session) Operator() Operator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.Operator
}

// AutosaveErr reports the outcome of the most recent autosave.
func (s *Session) AutosaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autosaveErr
}

// SetStatus is the manual transition; any status may follow any other. A paid
// dossier set to anything but Canceled is moved on to Active right after.
func (s *Session) SetStatus(ctx context.Context, st model.Status) error {
	if !st.Valid() {
		return apperr.Validation("session.set_status", fmt.Sprintf("unknown status %q", st))
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		d.Status = st
		s.audit.Record(d, ActionStatusChanged, fmt.Sprintf("Status rezervacije promenjen u \"%s\".", st), model.SeverityInfo)
		return nil
	})
}

// EvaluateStatus re-runs the automatic status rule on its own. It reports
// whether the status changed.
func (s *Session) EvaluateStatus(ctx context.Context) (bool, error) {
	var changed bool
	err := s.mutate(ctx, func(d *model.Dossier) error {
		changed = s.applyAutoStatusLocked()
		return nil
	})
	return changed, err
}

// applyAutoStatusLocked moves a paid dossier to Active unless it is Canceled.
func (s *Session) applyAutoStatusLocked() bool {
	d := s.d
	if d.Status == model.StatusCanceled || d.Status == model.StatusActive {
		return false
	}
	if finance.TotalPaid(d.Finance.Payments) <= 0 {
		return false
	}
	d.Status = model.StatusActive
	s.audit.Record(d, ActionStatusChanged,
		"Status rezervacije automatski promenjen u \"Active\" zbog evidentirane uplate.", model.SeverityInfo)
	return true
}

// mutate runs fn under the lock and re-checks the automatic status rule after
// every successful change. A failed fn that still appended a log entry (a
// rejected void) is persisted like a success and its error returned.
func (s *Session) mutate(ctx context.Context, fn func(d *model.Dossier) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	items := len(s.d.TripItems)
	logs := len(s.d.Logs)

	err := fn(s.d)
	if err != nil && len(s.d.Logs) == logs {
		s.mu.Unlock()
		return err
	}
	if err == nil {
		s.applyAutoStatusLocked()
	}
	itemsChanged := len(s.d.TripItems) != items
	key, blob, save := s.autosavePayloadLocked()
	s.mu.Unlock()

	if save {
		_ = s.autosave(ctx, key, blob)
	}
	if itemsChanged {
		s.triggerReconcile()
	}
	return err
}

func (s *Session) autosavePayloadLocked() (string, []byte, bool) {
	if s.d.ResCode != nil || s.deps.Store == nil {
		return "", nil, false
	}
	blob, err := store.Encode(s.d)
	if err != nil {
		s.autosaveErr = err
		s.log.Error("autosave encode failed", "error", err)
		return "", nil, false
	}
	return s.d.CisCode, blob, true
}

func (s *Session) autosave(ctx context.Context, key string, blob []byte) error {
	err := s.deps.Store.Save(ctx, key, blob)
	s.mu.Lock()
	s.autosaveErr = err
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("autosave failed", "error", err)
		return apperr.External("session.autosave", err)
	}
	s.log.Debug("autosaved", "bytes", len(blob))
	return nil
}

// SetOperator switches who subsequent audit entries are attributed to.
func (s *Session) SetOperator(op Operator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps.Operator = op
	if op.Name != "" {
		s.audit.Operator = op.Name
	}
}
