// Package sched provides the debounce scheduler behind conversation-list
// re-sorting. Rapid bursts of mutations coalesce into a single callback per
// key; the abstraction exists so tests can advance virtual time instead of
// sleeping on real timers.
package sched

import (
	"sync"
	"time"
)

// Scheduler coalesces repeated Schedule calls for the same key into one
// invocation of fn after the delay elapses without another call.
type Scheduler interface {
	// Schedule arms (or re-arms) the debounce timer for key.
	Schedule(key string, delay time.Duration, fn func())
	// Flush runs a pending callback for key immediately, if any.
	Flush(key string)
	// Cancel drops a pending callback without running it.
	Cancel(key string)
}

// TimerScheduler is the production implementation backed by time.AfterFunc.
type TimerScheduler struct {
	mu      sync.Mutex
	pending map[string]*timerEntry
}

type timerEntry struct {
	timer *time.Timer
	fn    func()
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{pending: make(map[string]*timerEntry)}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
	}
	e := &timerEntry{fn: fn}
	e.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.pending[key] != e {
			// Re-armed or cancelled after this timer fired; skip.
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = e
}

func (s *TimerScheduler) Flush(key string) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if ok {
		e.timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()
	if ok {
		e.fn()
	}
}

func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
		delete(s.pending, key)
	}
}

// ManualScheduler is a deterministic implementation for tests: callbacks fire
// only when Advance moves the virtual clock past their deadline.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pending map[string]manualEntry
}

type manualEntry struct {
	due time.Duration
	fn  func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[string]manualEntry)}
}

func (s *ManualScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = manualEntry{due: s.now + delay, fn: fn}
}

func (s *ManualScheduler) Flush(key string) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	s.mu.Unlock()
	if ok {
		e.fn()
	}
}

func (s *ManualScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Advance moves virtual time forward and fires every callback that came due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []func()
	for key, e := range s.pending {
		if e.due <= s.now {
			due = append(due, e.fn)
			delete(s.pending, key)
		}
	}
	s.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

// PendingCount reports how many keys have an armed callback.
func (s *ManualScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
