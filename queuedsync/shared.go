//go:build !solution

package queuedsync

import (
	"context"
	"runtime"
	"time"
)

// AcquireShared acquires in shared mode, blocking until the policy succeeds.
func (s *Synchronizer) AcquireShared(arg int64) {
	if s.policy.TryAcquireShared(s, arg) >= 0 {
		s.metrics.acquired(modeShared, pathFast)
		return
	}
	s.doAcquireShared(arg)
}

// AcquireSharedContext acquires in shared mode, aborting once ctx is done.
func (s *Synchronizer) AcquireSharedContext(ctx context.Context, arg int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.policy.TryAcquireShared(s, arg) >= 0 {
		s.metrics.acquired(modeShared, pathFast)
		return nil
	}
	return s.doAcquireSharedContext(ctx, arg)
}

// TryAcquireSharedNanos acquires in shared mode, giving up after nanos
// nanoseconds.
func (s *Synchronizer) TryAcquireSharedNanos(arg, nanos int64) bool {
	ok, _ := s.TryAcquireSharedTimeout(context.Background(), arg, time.Duration(nanos))
	return ok
}

// TryAcquireSharedTimeout is the shared counterpart of TryAcquireTimeout.
func (s *Synchronizer) TryAcquireSharedTimeout(ctx context.Context, arg int64, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.policy.TryAcquireShared(s, arg) >= 0 {
		s.metrics.acquired(modeShared, pathFast)
		return true, nil
	}
	return s.doAcquireSharedTimeout(ctx, arg, timeout)
}

// ReleaseShared releases in shared mode and, when the policy reports that
// waiters may proceed, wakes them with propagation.
func (s *Synchronizer) ReleaseShared(arg int64) (bool, error) {
	ok, err := s.policy.TryReleaseShared(s, arg)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.doReleaseShared()
	s.metrics.released(modeShared)
	return true, nil
}

// doReleaseShared signals the head's successor and makes sure the release is
// propagated even if the head changes concurrently.
func (s *Synchronizer) doReleaseShared() {
	for {
		h := s.head.Load()
		if h != nil && h != s.tail.Load() {
			ws := h.status.Load()
			if ws == statusSignal {
				if !h.status.CompareAndSwap(statusSignal, statusInitial) {
					continue
				}
				s.unparkSuccessor(h)
			} else if ws == statusInitial && !h.status.CompareAndSwap(statusInitial, statusPropagate) {
				continue
			}
		}
		if h == s.head.Load() {
			return
		}
	}
}

// setHeadAndPropagate installs n as head and keeps waking shared waiters
// while the policy reported spare capacity or a release was propagated.
func (s *Synchronizer) setHeadAndPropagate(n *node, propagate int64) {
	h := s.head.Load()
	s.setHead(n)

	if propagate > 0 || h == nil || h.status.Load() < 0 {
		s.propagate(n)
		return
	}
	if h = s.head.Load(); h == nil || h.status.Load() < 0 {
		s.propagate(n)
	}
}

func (s *Synchronizer) propagate(n *node) {
	if next := n.next.Load(); next == nil || next.shared {
		s.doReleaseShared()
	}
}

// tryQueuedShared is the common step of every shared wait loop.
func (s *Synchronizer) tryQueuedShared(n *node, arg int64) bool {
	p := n.prev.Load()
	if p != s.head.Load() {
		return false
	}
	r := s.policy.TryAcquireShared(s, arg)
	if r < 0 {
		return false
	}
	s.setHeadAndPropagate(n, r)
	p.next.Store(nil)
	s.metrics.acquired(modeShared, pathQueued)
	return true
}

func (s *Synchronizer) doAcquireShared(arg int64) {
	n := s.addWaiter(true)
	failed := true
	defer func() {
		if failed {
			s.cancel(n, reasonPanic)
		}
	}()

	for {
		if s.tryQueuedShared(n, arg) {
			failed = false
			return
		}
		if s.shouldParkAfterFailedAcquire(n.prev.Load(), n) {
			s.park(context.Background(), n, 0)
		}
	}
}

func (s *Synchronizer) doAcquireSharedContext(ctx context.Context, arg int64) error {
	n := s.addWaiter(true)
	reason := reasonPanic
	defer func() {
		if reason != "" {
			s.cancel(n, reason)
		}
	}()

	for {
		if s.tryQueuedShared(n, arg) {
			reason = ""
			return nil
		}
		if s.shouldParkAfterFailedAcquire(n.prev.Load(), n) {
			s.park(ctx, n, 0)
			if err := ctx.Err(); err != nil {
				reason = reasonContext
				return err
			}
		}
	}
}

func (s *Synchronizer) doAcquireSharedTimeout(ctx context.Context, arg int64, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return false, nil
	}
	deadline := s.clock.Now().Add(timeout)
	n := s.addWaiter(true)
	reason := reasonPanic
	defer func() {
		if reason != "" {
			s.cancel(n, reason)
		}
	}()

	for {
		if s.tryQueuedShared(n, arg) {
			reason = ""
			return true, nil
		}
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			reason = reasonTimeout
			return false, nil
		}
		if s.shouldParkAfterFailedAcquire(n.prev.Load(), n) {
			if remaining > spinForTimeoutThreshold {
				s.park(ctx, n, remaining)
			} else {
				runtime.Gosched()
			}
		}
		if err := ctx.Err(); err != nil {
			reason = reasonContext
			return false, err
		}
	}
}
