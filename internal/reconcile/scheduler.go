package reconcile

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a debounced task once after a fixed delay. Scheduling again
// before it fires replaces the pending task. After Cancel nothing runs.
type Scheduler struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool
}

func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{delay: delay}
}

// Schedule arms fn. The context handed to fn is canceled by Cancel or by a
// newer Schedule call. It reports false once the scheduler is stopped.
func (s *Scheduler) Schedule(parent context.Context, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.timer != t || ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		defer cancel()
		fn(ctx)
	})
	s.timer = t
	return true
}

// Pending reports whether a task is armed and has not fired yet.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Cancel stops the pending task and refuses new ones.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
