//go:build !solution

package queuedsync

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/petermattis/goid"
	"go.uber.org/zap"
)

// Ниже этого порога ожидание с таймаутом крутится, а не паркуется.
const spinForTimeoutThreshold = time.Microsecond

// Synchronizer is the queued synchronizer core. It must be created with
// [New] and must not be copied after first use.
type Synchronizer struct {
	state atomic.Int64
	head  atomic.Pointer[node]
	tail  atomic.Pointer[node]
	owner atomic.Int64

	policy  Policy
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *Metrics
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for debug events. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for timed waits.
func WithClock(c clockwork.Clock) Option {
	return func(s *Synchronizer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// New creates a synchronizer with zero state driven by policy.
func New(policy Policy, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		policy: policy,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state value.
func (s *Synchronizer) State() int64 {
	return s.state.Load()
}

// SetState stores a new state value. Only the exclusive holder may call it.
func (s *Synchronizer) SetState(v int64) {
	s.state.Store(v)
}

// CompareAndSetState atomically sets the state to update if it equals expect.
func (s *Synchronizer) CompareAndSetState(expect, update int64) bool {
	return s.state.CompareAndSwap(expect, update)
}

// SetExclusiveOwner records the goroutine id of the exclusive holder; zero
// means no owner.
func (s *Synchronizer) SetExclusiveOwner(gid int64) {
	s.owner.Store(gid)
}

// ExclusiveOwner returns the id recorded by SetExclusiveOwner.
func (s *Synchronizer) ExclusiveOwner() int64 {
	return s.owner.Load()
}

// GoroutineID returns the id of the calling goroutine.
func GoroutineID() int64 {
	return goid.Get()
}

// Acquire acquires in exclusive mode, blocking until the policy succeeds.
// The wait cannot be aborted.
func (s *Synchronizer) Acquire(arg int64) {
	if s.policy.TryAcquire(s, arg) {
		s.metrics.acquired(modeExclusive, pathFast)
		return
	}
	s.acquireQueued(s.addWaiter(false), arg)
	s.metrics.acquired(modeExclusive, pathQueued)
}

// AcquireContext acquires in exclusive mode, aborting once ctx is done.
func (s *Synchronizer) AcquireContext(ctx context.Context, arg int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.policy.TryAcquire(s, arg) {
		s.metrics.acquired(modeExclusive, pathFast)
		return nil
	}
	return s.doAcquireContext(ctx, arg)
}

// TryAcquireNanos acquires in exclusive mode, giving up after nanos
// nanoseconds. It reports whether the acquisition succeeded.
func (s *Synchronizer) TryAcquireNanos(arg, nanos int64) bool {
	ok, _ := s.TryAcquireTimeout(context.Background(), arg, time.Duration(nanos))
	return ok
}

// TryAcquireTimeout acquires in exclusive mode within timeout. A timeout
// yields false and a nil error; a done context yields false and ctx.Err().
func (s *Synchronizer) TryAcquireTimeout(ctx context.Context, arg int64, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.policy.TryAcquire(s, arg) {
		s.metrics.acquired(modeExclusive, pathFast)
		return true, nil
	}
	return s.doAcquireTimeout(ctx, arg, timeout)
}

// Release releases in exclusive mode. It reports whether the synchronizer
// became fully free; policy errors are returned unchanged.
func (s *Synchronizer) Release(arg int64) (bool, error) {
	free, err := s.policy.TryRelease(s, arg)
	if err != nil {
		if ce := s.logger.Check(zap.DebugLevel, "release rejected"); ce != nil {
			ce.Write(zap.Int64("goid", goid.Get()), zap.Int64("state", s.State()), zap.Error(err))
		}
		return false, err
	}
	if !free {
		return false, nil
	}
	if h := s.head.Load(); h != nil && h.status.Load() != statusInitial {
		s.unparkSuccessor(h)
	}
	s.metrics.released(modeExclusive)
	return true, nil
}

// acquireQueued waits for an already enqueued node without giving up.
// It is used by Acquire and by conditions re-acquiring after a wait.
func (s *Synchronizer) acquireQueued(n *node, arg int64) {
	failed := true
	defer func() {
		if failed {
			s.cancel(n, reasonPanic)
		}
	}()

	for {
		p := n.prev.Load()
		if p == s.head.Load() && s.policy.TryAcquire(s, arg) {
			s.setHead(n)
			p.next.Store(nil)
			failed = false
			return
		}
		if s.shouldParkAfterFailedAcquire(p, n) {
			s.park(context.Background(), n, 0)
		}
	}
}

func (s *Synchronizer) doAcquireContext(ctx context.Context, arg int64) error {
	n := s.addWaiter(false)
	reason := reasonPanic
	defer func() {
		if reason != "" {
			s.cancel(n, reason)
		}
	}()

	for {
		p := n.prev.Load()
		if p == s.head.Load() && s.policy.TryAcquire(s, arg) {
			s.setHead(n)
			p.next.Store(nil)
			reason = ""
			s.metrics.acquired(modeExclusive, pathQueued)
			return nil
		}
		if s.shouldParkAfterFailedAcquire(p, n) {
			s.park(ctx, n, 0)
			if err := ctx.Err(); err != nil {
				reason = reasonContext
				return err
			}
		}
	}
}

func (s *Synchronizer) doAcquireTimeout(ctx context.Context, arg int64, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return false, nil
	}
	deadline := s.clock.Now().Add(timeout)
	n := s.addWaiter(false)
	reason := reasonPanic
	defer func() {
		if reason != "" {
			s.cancel(n, reason)
		}
	}()

	for {
		p := n.prev.Load()
		if p == s.head.Load() && s.policy.TryAcquire(s, arg) {
			s.setHead(n)
			p.next.Store(nil)
			reason = ""
			s.metrics.acquired(modeExclusive, pathQueued)
			return true, nil
		}
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			reason = reasonTimeout
			return false, nil
		}
		if s.shouldParkAfterFailedAcquire(p, n) {
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

// park blocks the goroutine owning n. A positive timeout bounds the wait.
func (s *Synchronizer) park(ctx context.Context, n *node, timeout time.Duration) {
	s.metrics.parked(n.mode())
	if timeout <= 0 {
		n.own.park(ctx, nil)
		return
	}
	t := s.clock.NewTimer(timeout)
	defer t.Stop()
	n.own.park(ctx, t.Chan())
}

func (s *Synchronizer) cancel(n *node, reason string) {
	s.cancelAcquire(n)
	s.metrics.cancelled(n.mode(), reason)
	if ce := s.logger.Check(zap.DebugLevel, "acquire cancelled"); ce != nil {
		ce.Write(
			zap.Int64("goid", n.own.gid),
			zap.String("mode", n.mode()),
			zap.String("reason", reason),
		)
	}
}

// String reports the state and whether the queue is empty.
func (s *Synchronizer) String() string {
	q := "empty"
	if s.HasQueuedThreads() {
		q = "non-empty"
	}
	return fmt.Sprintf("queuedsync.Synchronizer[state=%d, %s queue]", s.State(), q)
}
