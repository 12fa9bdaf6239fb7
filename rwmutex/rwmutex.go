//go:build !solution

package rwmutex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/slon/qsync/queuedsync"
)

// A RWMutex is a reentrant reader/writer mutual exclusion lock.
// The lock can be held by an arbitrary number of readers or a single writer.
//
// Both read and write holds are reentrant. The writer may acquire the read
// lock and then release the write lock, downgrading to a reader; the reverse
// upgrade is not possible and deadlocks.
//
// In non-fair mode a new reader does not overtake a writer that is first in
// the queue, so a blocked Lock call excludes new readers from acquiring the
// lock. Readers that already hold it may still re-acquire.
type RWMutex struct {
	sync   *queuedsync.Synchronizer
	policy *policy
}

// New creates *RWMutex.
func New(fair bool, opts ...queuedsync.Option) *RWMutex {
	p := &policy{fair: fair}
	return &RWMutex{
		sync:   queuedsync.New(p, opts...),
		policy: p,
	}
}

// RLock locks rw for reading.
func (rw *RWMutex) RLock() {
	rw.sync.AcquireShared(1)
}

// RLockContext locks rw for reading unless ctx is done first.
func (rw *RWMutex) RLockContext(ctx context.Context) error {
	return rw.sync.AcquireSharedContext(ctx, 1)
}

// TryRLock locks rw for reading if no other goroutine holds it for writing.
// It barges even in fair mode.
func (rw *RWMutex) TryRLock() bool {
	return rw.policy.tryReadLock(rw.sync)
}

// TryRLockTimeout waits up to timeout for the read lock.
func (rw *RWMutex) TryRLockTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	return rw.sync.TryAcquireSharedTimeout(ctx, 1, timeout)
}

// RUnlock undoes a single RLock call of the calling goroutine;
// it does not affect other simultaneous readers.
// It returns an error wrapping queuedsync.ErrNotHeld if the caller has no
// read hold.
func (rw *RWMutex) RUnlock() error {
	if _, err := rw.sync.ReleaseShared(1); err != nil {
		return fmt.Errorf("rwmutex: read unlock: %w", err)
	}
	return nil
}

// Lock locks rw for writing.
// If the lock is already locked for reading or writing by another goroutine,
// Lock blocks until the lock is available.
func (rw *RWMutex) Lock() {
	rw.sync.Acquire(1)
}

// LockContext locks rw for writing unless ctx is done first.
func (rw *RWMutex) LockContext(ctx context.Context) error {
	return rw.sync.AcquireContext(ctx, 1)
}

// TryLock locks rw for writing if it is free or already write-held by the
// caller. It barges even in fair mode.
func (rw *RWMutex) TryLock() bool {
	return rw.policy.tryWriteLock(rw.sync)
}

// TryLockTimeout waits up to timeout for the write lock.
func (rw *RWMutex) TryLockTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	return rw.sync.TryAcquireTimeout(ctx, 1, timeout)
}

// Unlock undoes a single write hold. Unlike sync.RWMutex, the write lock is
// owned by the goroutine that acquired it; Unlock from any other goroutine
// returns an error wrapping queuedsync.ErrNotHeld.
func (rw *RWMutex) Unlock() error {
	if _, err := rw.sync.Release(1); err != nil {
		return fmt.Errorf("rwmutex: unlock: %w", err)
	}
	return nil
}

// RLocker returns a sync.Locker that calls RLock and RUnlock.
// Its Unlock panics if the caller has no read hold.
func (rw *RWMutex) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWMutex

func (r *rlocker) Lock() { (*RWMutex)(r).RLock() }

func (r *rlocker) Unlock() {
	if err := (*RWMutex)(r).RUnlock(); err != nil {
		panic(err)
	}
}

// NewCondition returns a condition bound to the write lock.
func (rw *RWMutex) NewCondition() *queuedsync.Condition {
	return rw.sync.NewCondition()
}

// ReadLockCount returns the total number of read holds across goroutines.
func (rw *RWMutex) ReadLockCount() int {
	return int(sharedCount(rw.sync.State()))
}

// ReadHoldCount returns the number of read holds of the calling goroutine.
func (rw *RWMutex) ReadHoldCount() int {
	return int(rw.policy.holds.get(queuedsync.GoroutineID()))
}

// WriteHoldCount returns the number of write holds of the calling goroutine.
func (rw *RWMutex) WriteHoldCount() int {
	if isHeldExclusively(rw.sync) {
		return int(exclusiveCount(rw.sync.State()))
	}
	return 0
}

// IsWriteLocked reports whether any goroutine holds the write lock.
func (rw *RWMutex) IsWriteLocked() bool {
	return exclusiveCount(rw.sync.State()) != 0
}

// IsWriteLockedByCurrentGoroutine reports whether the caller holds the write
// lock.
func (rw *RWMutex) IsWriteLockedByCurrentGoroutine() bool {
	return isHeldExclusively(rw.sync)
}

// IsFair reports whether the lock was created in fair mode.
func (rw *RWMutex) IsFair() bool {
	return rw.policy.fair
}

// HasQueuedThreads reports whether goroutines may be waiting for either lock.
func (rw *RWMutex) HasQueuedThreads() bool {
	return rw.sync.HasQueuedThreads()
}

// QueueLength estimates the number of waiting goroutines.
func (rw *RWMutex) QueueLength() int {
	return rw.sync.QueueLength()
}

func (rw *RWMutex) String() string {
	c := rw.sync.State()
	return fmt.Sprintf("rwmutex.RWMutex[writers=%d, readers=%d]", exclusiveCount(c), sharedCount(c))
}
