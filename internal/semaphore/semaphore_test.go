package semaphore_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/benchforge/internal/semaphore"
)

// TestAcquireUpToCapacity ensures N acquires succeed immediately.
func TestAcquireUpToCapacity(t *testing.T) {
	s := semaphore.New(3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		go func() {
			if err := s.Acquire(ctx); err != nil {
				t.Errorf("acquire %d: %v", i, err)
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("acquire %d blocked with permits free", i)
		}
	}
	if s.Used() != 3 {
		t.Fatalf("expected 3 used permits, got %d", s.Used())
	}
	if s.Available() != 0 {
		t.Fatalf("expected 0 available, got %d", s.Available())
	}
}

// TestExtraAcquireBlocksUntilRelease ensures the (N+1)th acquire waits.
func TestExtraAcquireBlocksUntilRelease(t *testing.T) {
	s := semaphore.New(1)
	ctx := context.Background()
	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := s.Acquire(ctx); err != nil {
			t.Errorf("second acquire: %v", err)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire resolved before release")
	case <-time.After(50 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire did not resolve after release")
	}
}

// TestReleaseHandsOffInFIFOOrder ensures blocked callers resolve in request order.
func TestReleaseHandsOffInFIFOOrder(t *testing.T) {
	s := semaphore.New(1)
	ctx := context.Background()
	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}

	const waiters = 5
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		queued := make(chan struct{})
		go func(id int) {
			defer wg.Done()
			close(queued)
			if err := s.Acquire(ctx); err != nil {
				t.Errorf("waiter %d: %v", id, err)
				return
			}
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			s.Release()
		}(i)
		<-queued
		// Give the goroutine time to enqueue before starting the next,
		// so the expected FIFO order is deterministic.
		time.Sleep(20 * time.Millisecond)
	}

	s.Release()
	wg.Wait()

	for i, id := range order {
		if id != i {
			t.Fatalf("expected FIFO wakeup order, got %v", order)
		}
	}
}

// TestTryAcquireRespectsQueue ensures TryAcquire never jumps ahead of waiters.
func TestTryAcquireRespectsQueue(t *testing.T) {
	s := semaphore.New(1)
	ctx := context.Background()
	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}
	if s.TryAcquire() {
		t.Fatal("TryAcquire succeeded with no free permits")
	}

	waiting := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		close(waiting)
		if err := s.Acquire(ctx); err != nil {
			t.Errorf("waiter: %v", err)
		}
		close(acquired)
	}()
	<-waiting
	time.Sleep(20 * time.Millisecond)

	s.Release()
	<-acquired
	// The queued waiter got the permit; TryAcquire must still fail.
	if s.TryAcquire() {
		t.Fatal("TryAcquire stole the handed-off permit")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("TryAcquire failed with a free permit and empty queue")
	}
}

// TestAcquireCancelled ensures a cancelled waiter abandons the queue.
func TestAcquireCancelled(t *testing.T) {
	s := semaphore.New(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Acquire(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected cancellation error")
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire did not return")
	}

	// The abandoned waiter must not consume the next release.
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("permit lost to a cancelled waiter")
	}
}

// TestConcurrentAcquireReleaseBound hammers the semaphore and checks the
// concurrency bound holds.
func TestConcurrentAcquireReleaseBound(t *testing.T) {
	const capacity = 4
	s := semaphore.New(capacity)
	ctx := context.Background()

	var inFlight int64
	var peak int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(ctx); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			s.Release()
		}()
	}
	wg.Wait()

	if peak > capacity {
		t.Fatalf("observed %d concurrent holders, capacity %d", peak, capacity)
	}
	if s.Used() != 0 {
		t.Fatalf("expected all permits returned, %d still used", s.Used())
	}
}
