//go:build !solution

package reentrantlock

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/slon/qsync/queuedsync"
)

// Mutex is a reentrant mutual exclusion lock owned by the goroutine that
// last locked it. The owner may lock it again; it becomes available to other
// goroutines after the matching number of Unlock calls.
//
// In fair mode the lock is granted to the longest waiting goroutine. The
// default non-fair mode lets an arriving goroutine take a free lock ahead of
// queued ones, which gives much better throughput.
type Mutex struct {
	sync *queuedsync.Synchronizer
	fair bool
}

// New creates a Mutex.
func New(fair bool, opts ...queuedsync.Option) *Mutex {
	var p queuedsync.Policy = nonfairPolicy{}
	if fair {
		p = fairPolicy{}
	}
	return &Mutex{
		sync: queuedsync.New(p, opts...),
		fair: fair,
	}
}

// Lock acquires the lock, blocking until it is available.
func (m *Mutex) Lock() {
	m.sync.Acquire(1)
}

// LockContext acquires the lock unless ctx is done first.
func (m *Mutex) LockContext(ctx context.Context) error {
	return m.sync.AcquireContext(ctx, 1)
}

// TryLock acquires the lock only if it is free at the time of the call.
// It barges even in fair mode.
func (m *Mutex) TryLock() bool {
	return nonfairTryAcquire(m.sync, 1)
}

// TryLockTimeout waits up to timeout for the lock. In fair mode it honours
// the queue order.
func (m *Mutex) TryLockTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	return m.sync.TryAcquireTimeout(ctx, 1, timeout)
}

// Unlock releases one hold. It returns an error wrapping
// queuedsync.ErrNotHeld if the caller does not own the lock.
func (m *Mutex) Unlock() error {
	if _, err := m.sync.Release(1); err != nil {
		return fmt.Errorf("reentrantlock: unlock: %w", err)
	}
	return nil
}

// NewCondition returns a condition bound to this lock.
func (m *Mutex) NewCondition() *queuedsync.Condition {
	return m.sync.NewCondition()
}

// HoldCount returns the number of holds by the calling goroutine.
func (m *Mutex) HoldCount() int64 {
	if isHeldExclusively(m.sync) {
		return m.sync.State()
	}
	return 0
}

// IsHeldByCurrentGoroutine reports whether the caller owns the lock.
func (m *Mutex) IsHeldByCurrentGoroutine() bool {
	return isHeldExclusively(m.sync)
}

// IsLocked reports whether any goroutine owns the lock.
func (m *Mutex) IsLocked() bool {
	return m.sync.State() != 0
}

// IsFair reports whether the lock was created in fair mode.
func (m *Mutex) IsFair() bool {
	return m.fair
}

// Owner returns the id of the owning goroutine.
func (m *Mutex) Owner() (int64, bool) {
	if m.sync.State() == 0 {
		return 0, false
	}
	gid := m.sync.ExclusiveOwner()
	return gid, gid != 0
}

// HasQueuedThreads reports whether goroutines may be waiting for the lock.
func (m *Mutex) HasQueuedThreads() bool {
	return m.sync.HasQueuedThreads()
}

// HasQueuedThread reports whether the goroutine gid is waiting.
func (m *Mutex) HasQueuedThread(gid int64) bool {
	return m.sync.IsQueued(gid)
}

// QueueLength estimates the number of waiting goroutines.
func (m *Mutex) QueueLength() int {
	return m.sync.QueueLength()
}

func (m *Mutex) String() string {
	if gid, ok := m.Owner(); ok {
		return fmt.Sprintf("reentrantlock.Mutex[locked by goroutine %d]", gid)
	}
	return "reentrantlock.Mutex[unlocked]"
}
