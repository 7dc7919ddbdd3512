package timer

import (
	"sync"
	"time"
)

// Slot holds at most one pending timer. Arm replaces whatever was pending,
// Cancel is idempotent, and a fired timer clears the slot before its callback
// runs so the callback may Arm again.
type Slot struct {
	clock Clock

	mu      sync.Mutex
	handle  Stopper
	gen     uint64
	dueAt   time.Time
	stopped bool
}

// NewSlot creates an empty slot on the given clock. A nil clock means Real().
func NewSlot(clock Clock) *Slot {
	if clock == nil {
		clock = Real()
	}
	return &Slot{clock: clock}
}

// Arm schedules f after d, cancelling any previously armed timer.
// It returns false if the slot has been shut down.
func (s *Slot) Arm(d time.Duration, f func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.stopLocked()

	s.gen++
	gen := s.gen
	s.dueAt = s.clock.Now().Add(d)
	s.handle = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		// A stale fire lost the race against Arm/Cancel.
		if s.gen != gen || s.handle == nil {
			s.mu.Unlock()
			return
		}
		s.handle = nil
		s.dueAt = time.Time{}
		s.mu.Unlock()

		f()
	})
	return true
}

// Cancel drops the pending timer, if any.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Shutdown cancels the pending timer and refuses further Arm calls.
func (s *Slot) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.stopped = true
}

// Armed reports whether a timer is pending.
func (s *Slot) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// DueAt returns when the pending timer fires, or the zero time.
func (s *Slot) DueAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueAt
}

func (s *Slot) stopLocked() {
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
	s.gen++
	s.dueAt = time.Time{}
}
