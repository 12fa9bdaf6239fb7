//go:build !solution

// Package queuedsync implements a queued synchronizer: a single atomically
// updated int64 state plus a lock-free FIFO queue of parked goroutines.
//
// Concrete synchronization tools (mutexes, semaphores, latches, read-write
// locks) are built by implementing [Policy]. The policy decides what the state
// means; the [Synchronizer] takes care of queuing, parking, wakeup ordering,
// fairness checks, cancellation and timeouts.
//
// A minimal non-reentrant mutex:
//
//	type mutexPolicy struct{ queuedsync.ExclusiveOnly }
//
//	func (mutexPolicy) TryAcquire(s *queuedsync.Synchronizer, _ int64) bool {
//		return s.CompareAndSetState(0, 1)
//	}
//
//	func (mutexPolicy) TryRelease(s *queuedsync.Synchronizer, _ int64) (bool, error) {
//		if s.State() == 0 {
//			return false, queuedsync.ErrNotHeld
//		}
//		s.SetState(0)
//		return true, nil
//	}
//
//	func (mutexPolicy) IsHeldExclusively(s *queuedsync.Synchronizer) bool {
//		return s.State() == 1
//	}
//
//	s := queuedsync.New(mutexPolicy{})
//	s.Acquire(1)
//	defer s.Release(1)
package queuedsync
