//go:build !solution

package queuedsync

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Condition is a wait set bound to a Synchronizer held in exclusive mode.
// Waiters release the synchronizer completely, wait for a signal and
// re-acquire it with the saved state before returning.
//
// The waiter list is guarded by the exclusive hold itself, so every method
// requires the caller to hold the synchronizer.
type Condition struct {
	s           *Synchronizer
	firstWaiter *node
	lastWaiter  *node
}

// NewCondition creates a condition bound to s.
func (s *Synchronizer) NewCondition() *Condition {
	return &Condition{s: s}
}

// Owns reports whether c was created by s.
func (s *Synchronizer) Owns(c *Condition) bool {
	return c != nil && c.s == s
}

// Await releases the synchronizer and waits for a signal or for ctx to be
// done. The synchronizer is re-acquired before Await returns in every case
// except ErrIllegalMonitorState. If ctx is done before a signal arrives,
// ctx.Err() is returned; a signal that wins the race yields nil.
func (c *Condition) Await(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, saved, err := c.enter()
	if err != nil {
		return err
	}

	cancelled := false
	for !c.s.isOnSyncQueue(n) {
		c.s.park(ctx, n, 0)
		if ctx.Err() != nil {
			cancelled = c.s.transferAfterCancelledWait(n)
			break
		}
	}
	c.leave(n, saved)

	if cancelled {
		return ctx.Err()
	}
	return nil
}

// AwaitUninterruptibly waits for a signal; nothing else can end the wait.
func (c *Condition) AwaitUninterruptibly() error {
	n, saved, err := c.enter()
	if err != nil {
		return err
	}
	for !c.s.isOnSyncQueue(n) {
		c.s.park(context.Background(), n, 0)
	}
	c.leave(n, saved)
	return nil
}

// AwaitNanos waits at most nanos nanoseconds. It returns an estimate of the
// time left; a value <= 0 means the wait timed out.
func (c *Condition) AwaitNanos(ctx context.Context, nanos int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline := c.s.clock.Now().Add(time.Duration(nanos))
	_, err := c.awaitDeadline(ctx, deadline)
	return int64(deadline.Sub(c.s.clock.Now())), err
}

// AwaitUntil waits until signalled or until deadline passes. It returns false
// if the deadline elapsed before a signal.
func (c *Condition) AwaitUntil(ctx context.Context, deadline time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.awaitDeadline(ctx, deadline)
}

func (c *Condition) awaitDeadline(ctx context.Context, deadline time.Time) (bool, error) {
	n, saved, err := c.enter()
	if err != nil {
		return false, err
	}

	var timedOut, cancelled bool
	for !c.s.isOnSyncQueue(n) {
		remaining := deadline.Sub(c.s.clock.Now())
		if remaining <= 0 {
			timedOut = c.s.transferAfterCancelledWait(n)
			break
		}
		if remaining > spinForTimeoutThreshold {
			c.s.park(ctx, n, remaining)
		} else {
			runtime.Gosched()
		}
		if ctx.Err() != nil {
			cancelled = c.s.transferAfterCancelledWait(n)
			break
		}
	}
	c.leave(n, saved)

	if cancelled {
		return false, ctx.Err()
	}
	if timedOut {
		if ce := c.s.logger.Check(zap.DebugLevel, "condition wait timed out"); ce != nil {
			ce.Write(zap.Int64("goid", n.own.gid))
		}
	}
	return !timedOut, nil
}

// enter adds a condition node and fully releases the synchronizer.
func (c *Condition) enter() (*node, int64, error) {
	if !c.s.policy.IsHeldExclusively(c.s) {
		return nil, 0, ErrIllegalMonitorState
	}
	n := c.addConditionWaiter()
	saved, err := c.s.fullyRelease(n)
	if err != nil {
		return nil, 0, err
	}
	return n, saved, nil
}

// leave re-acquires with the saved state once n is on the sync queue.
func (c *Condition) leave(n *node, saved int64) {
	c.s.acquireQueued(n, saved)
	if n.nextWaiter != nil {
		c.unlinkCancelledWaiters()
	}
}

// Signal moves the longest waiting goroutine, if any, to the sync queue.
func (c *Condition) Signal() error {
	if !c.s.policy.IsHeldExclusively(c.s) {
		return ErrIllegalMonitorState
	}
	for first := c.firstWaiter; first != nil; first = c.firstWaiter {
		c.firstWaiter = first.nextWaiter
		if c.firstWaiter == nil {
			c.lastWaiter = nil
		}
		first.nextWaiter = nil
		if c.s.transferForSignal(first) {
			break
		}
	}
	return nil
}

// SignalAll moves every waiting goroutine to the sync queue.
func (c *Condition) SignalAll() error {
	if !c.s.policy.IsHeldExclusively(c.s) {
		return ErrIllegalMonitorState
	}
	first := c.firstWaiter
	c.firstWaiter, c.lastWaiter = nil, nil
	for first != nil {
		next := first.nextWaiter
		first.nextWaiter = nil
		c.s.transferForSignal(first)
		first = next
	}
	return nil
}

// HasWaiters reports whether any goroutine is waiting on c.
func (c *Condition) HasWaiters() (bool, error) {
	n, err := c.WaitQueueLength()
	return n > 0, err
}

// WaitQueueLength estimates the number of goroutines waiting on c.
func (c *Condition) WaitQueueLength() (int, error) {
	ids, err := c.WaitingGoroutines()
	return len(ids), err
}

// WaitingGoroutines returns ids of goroutines waiting on c in FIFO order.
func (c *Condition) WaitingGoroutines() ([]int64, error) {
	if !c.s.policy.IsHeldExclusively(c.s) {
		return nil, ErrIllegalMonitorState
	}
	var ids []int64
	for w := c.firstWaiter; w != nil; w = w.nextWaiter {
		if w.status.Load() != statusCondition {
			continue
		}
		if p := w.waiter.Load(); p != nil {
			ids = append(ids, p.gid)
		}
	}
	return ids, nil
}

func (c *Condition) addConditionWaiter() *node {
	t := c.lastWaiter
	if t != nil && t.status.Load() != statusCondition {
		c.unlinkCancelledWaiters()
		t = c.lastWaiter
	}

	n := newNode(false)
	n.status.Store(statusCondition)
	if t == nil {
		c.firstWaiter = n
	} else {
		t.nextWaiter = n
	}
	c.lastWaiter = n
	return n
}

// unlinkCancelledWaiters drops nodes that left the condition by timeout or
// cancellation.
func (c *Condition) unlinkCancelledWaiters() {
	var trail *node
	for t := c.firstWaiter; t != nil; {
		next := t.nextWaiter
		if t.status.Load() != statusCondition {
			t.nextWaiter = nil
			if trail == nil {
				c.firstWaiter = next
			} else {
				trail.nextWaiter = next
			}
			if next == nil {
				c.lastWaiter = trail
			}
		} else {
			trail = t
		}
		t = next
	}
}

// fullyRelease releases with the whole current state and returns it.
func (s *Synchronizer) fullyRelease(n *node) (int64, error) {
	saved := s.State()
	free, err := s.Release(saved)
	if err == nil && !free {
		err = ErrIllegalMonitorState
	}
	if err != nil {
		n.status.Store(statusCancelled)
		return 0, err
	}
	return saved, nil
}

// isOnSyncQueue reports whether a former condition node has been moved to
// the sync queue.
func (s *Synchronizer) isOnSyncQueue(n *node) bool {
	if n.status.Load() == statusCondition || n.prev.Load() == nil {
		return false
	}
	if n.next.Load() != nil {
		return true
	}
	// prev может быть выставлен, а CAS хвоста ещё не прошёл
	for t := s.tail.Load(); t != nil; t = t.prev.Load() {
		if t == n {
			return true
		}
	}
	return false
}

// transferForSignal moves n from a condition to the sync queue. It returns
// false if the node was cancelled before the signal.
func (s *Synchronizer) transferForSignal(n *node) bool {
	if !n.status.CompareAndSwap(statusCondition, statusInitial) {
		return false
	}
	p := s.enq(n)
	ws := p.status.Load()
	if ws > 0 || !p.status.CompareAndSwap(ws, statusSignal) {
		if w := n.waiter.Load(); w != nil {
			w.unpark()
		}
	}
	return true
}

// transferAfterCancelledWait moves n to the sync queue after a timeout or
// cancellation. It returns true if this happened before any signal.
func (s *Synchronizer) transferAfterCancelledWait(n *node) bool {
	if n.status.CompareAndSwap(statusCondition, statusInitial) {
		s.enq(n)
		return true
	}
	// Сигнал уже в пути: ждём, пока signal закончит enq.
	for !s.isOnSyncQueue(n) {
		runtime.Gosched()
	}
	return false
}
