// Package semaphore provides a FIFO counting semaphore for bounding suite
// concurrency. Unlike a bare buffered channel, a released permit is handed
// directly to the oldest waiter, so no acquirer can jump the queue.
package semaphore

import (
	"context"
	"sync"
)

// Semaphore limits concurrent execution to a fixed number of permits.
type Semaphore struct {
	mu       sync.Mutex
	capacity int
	used     int
	waiters  []chan struct{}
}

// New creates a semaphore with the given capacity. Capacities below 1 are
// clamped to 1.
func New(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{capacity: n}
}

// Acquire blocks until a permit is available or ctx is cancelled.
// Returns nil once the caller holds a permit.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.used < s.capacity && len(s.waiters) == 0 {
		s.used++
		s.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	s.waiters = append(s.waiters, ready)
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-ready:
			// The permit was handed over after cancellation fired.
			// Keep it rather than trying to repair the queue.
			s.mu.Unlock()
			return nil
		default:
			s.removeWaiter(ready)
			s.mu.Unlock()
			return ctx.Err()
		}
	}
}

// TryAcquire takes a permit without blocking. It fails if no permit is free
// or if earlier callers are still queued.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used < s.capacity && len(s.waiters) == 0 {
		s.used++
		return true
	}
	return false
}

// Release returns a permit. If waiters are queued, the oldest one receives
// the permit directly. Must be called exactly once per successful acquire;
// that pairing is the caller's contract and is not enforced here.
func (s *Semaphore) Release() {
	s.mu.Lock()
	if len(s.waiters) > 0 {
		ready := s.waiters[0]
		s.waiters = s.waiters[1:]
		s.mu.Unlock()
		close(ready)
		return
	}
	s.used--
	s.mu.Unlock()
}

// Capacity returns the total number of permits.
func (s *Semaphore) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// Used returns the number of permits currently held. Diagnostic only.
func (s *Semaphore) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Available returns the number of free permits. Diagnostic only.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity - s.used
}

func (s *Semaphore) removeWaiter(ready chan struct{}) {
	for i, w := range s.waiters {
		if w == ready {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
