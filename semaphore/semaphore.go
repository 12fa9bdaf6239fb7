//go:build !solution

package semaphore

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/slon/qsync/queuedsync"
)

// Semaphore is a counting semaphore. Permits are not owned: any goroutine
// may release them, including ones that never acquired.
type Semaphore struct {
	sync *queuedsync.Synchronizer
	fair bool
}

// New creates a semaphore with the given number of permits. A negative value
// means releases must happen before any acquire succeeds.
func New(permits int64, fair bool, opts ...queuedsync.Option) *Semaphore {
	var p queuedsync.Policy = nonfairPolicy{}
	if fair {
		p = fairPolicy{}
	}
	s := &Semaphore{
		sync: queuedsync.New(p, opts...),
		fair: fair,
	}
	s.sync.SetState(permits)
	return s
}

// Acquire takes one permit, blocking until it is available.
func (s *Semaphore) Acquire() {
	s.sync.AcquireShared(1)
}

// AcquireN takes n permits at once.
func (s *Semaphore) AcquireN(n int64) error {
	if n < 0 {
		return fmt.Errorf("semaphore: acquire %d: %w", n, queuedsync.ErrNegativeArg)
	}
	s.sync.AcquireShared(n)
	return nil
}

// AcquireContext takes n permits unless ctx is done first.
func (s *Semaphore) AcquireContext(ctx context.Context, n int64) error {
	if n < 0 {
		return fmt.Errorf("semaphore: acquire %d: %w", n, queuedsync.ErrNegativeArg)
	}
	return s.sync.AcquireSharedContext(ctx, n)
}

// TryAcquire takes one permit only if it is available right now.
// It barges even in fair mode.
func (s *Semaphore) TryAcquire() bool {
	return nonfairTryAcquireShared(s.sync, 1) >= 0
}

// TryAcquireN takes n permits only if they are available right now.
func (s *Semaphore) TryAcquireN(n int64) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("semaphore: acquire %d: %w", n, queuedsync.ErrNegativeArg)
	}
	return nonfairTryAcquireShared(s.sync, n) >= 0, nil
}

// TryAcquireTimeout waits up to timeout for n permits.
func (s *Semaphore) TryAcquireTimeout(ctx context.Context, n int64, timeout time.Duration) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("semaphore: acquire %d: %w", n, queuedsync.ErrNegativeArg)
	}
	return s.sync.TryAcquireSharedTimeout(ctx, n, timeout)
}

// Release returns one permit.
func (s *Semaphore) Release() {
	// ошибки тут не бывает, переполнение паникует
	_, _ = s.sync.ReleaseShared(1)
}

// ReleaseN returns n permits.
func (s *Semaphore) ReleaseN(n int64) error {
	if n < 0 {
		return fmt.Errorf("semaphore: release %d: %w", n, queuedsync.ErrNegativeArg)
	}
	_, err := s.sync.ReleaseShared(n)
	return err
}

// AvailablePermits returns the current number of permits.
func (s *Semaphore) AvailablePermits() int64 {
	return s.sync.State()
}

// DrainPermits takes every immediately available permit and returns how
// many were taken.
func (s *Semaphore) DrainPermits() int64 {
	for {
		cur := s.sync.State()
		if cur == 0 || s.sync.CompareAndSetState(cur, 0) {
			return cur
		}
	}
}

// ReducePermits shrinks the number of available permits without blocking.
// The count may become negative.
func (s *Semaphore) ReducePermits(reduction int64) error {
	if reduction < 0 {
		return fmt.Errorf("semaphore: reduce %d: %w", reduction, queuedsync.ErrNegativeArg)
	}
	for {
		cur := s.sync.State()
		next := cur - reduction
		if next > cur {
			panic(queuedsync.ErrCountOverflow)
		}
		if s.sync.CompareAndSetState(cur, next) {
			return nil
		}
	}
}

// IsFair reports whether the semaphore was created in fair mode.
func (s *Semaphore) IsFair() bool {
	return s.fair
}

// HasQueuedThreads reports whether goroutines may be waiting for permits.
func (s *Semaphore) HasQueuedThreads() bool {
	return s.sync.HasQueuedThreads()
}

// QueueLength estimates the number of waiting goroutines.
func (s *Semaphore) QueueLength() int {
	return s.sync.QueueLength()
}

func (s *Semaphore) String() string {
	return fmt.Sprintf("semaphore.Semaphore[permits=%d]", s.sync.State())
}
