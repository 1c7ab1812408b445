package session

import (
	"context"
	"sync"
)

// Registry keeps the open sessions of one process, keyed by cisCode, so that
// scheduled reconciliation lands on the session the caller keeps using.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

func (r *Registry) depsFor(op Operator) Deps {
	d := r.deps
	if op.Name != "" {
		d.Operator = op
	}
	return d
}

// Create opens a session on a new dossier and runs its initial autosave.
func (r *Registry) Create(ctx context.Context, op Operator) (*Session, error) {
	s := New(r.depsFor(op))
	r.put(s)
	return s, s.Init(ctx)
}

func (r *Registry) Seed(ctx context.Context, op Operator, p BookingPayload) (*Session, error) {
	s := Seed(r.depsFor(op), p)
	r.put(s)
	return s, s.Init(ctx)
}

// Acquire returns the open session for key, hydrating it from the store on
// first use. The operator of an already open session is switched to op.
func (r *Registry) Acquire(ctx context.Context, key string, op Operator) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	r.mu.Unlock()
	if ok {
		if op.Name != "" {
			s.SetOperator(op)
		}
		return s, nil
	}

	s, err := Open(ctx, r.depsFor(op), key)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		s.Close()
		return existing, nil
	}
	r.sessions[key] = s
	r.mu.Unlock()
	if err := s.Init(ctx); err != nil {
		s.log.Warn("initial autosave failed", "error", err)
	}
	return s, nil
}

// View returns the open session for key, or a detached session hydrated from
// the store for reading. A detached session is not registered and never runs
// Init, so it neither autosaves nor schedules a lookup. Call release when done.
func (r *Registry) View(ctx context.Context, key string) (s *Session, release func(), err error) {
	if s, ok := r.Get(key); ok {
		return s, func() {}, nil
	}
	s, err = Open(ctx, r.deps, key)
	if err != nil {
		return nil, func() {}, err
	}
	return s, s.Close, nil
}

func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Close tears down one session. It reports false for unknown keys.
func (r *Registry) Close(key string) bool {
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) put(s *Session) {
	r.mu.Lock()
	r.sessions[s.Key()] = s
	r.mu.Unlock()
}
