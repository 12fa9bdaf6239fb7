//go:build !solution

package countdownlatch

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/slon/qsync/queuedsync"
)

// Latch lets goroutines wait until a set of operations performed by other
// goroutines completes. The count is set once in New; it cannot be reset.
type Latch struct {
	sync *queuedsync.Synchronizer
}

// New creates a latch that opens after count calls to CountDown.
// It panics if count is negative.
func New(count int64, opts ...queuedsync.Option) *Latch {
	if count < 0 {
		panic(fmt.Errorf("countdownlatch: count %d: %w", count, queuedsync.ErrNegativeArg))
	}
	l := &Latch{sync: queuedsync.New(policy{}, opts...)}
	l.sync.SetState(count)
	return l
}

// Await blocks until the count reaches zero.
func (l *Latch) Await() {
	l.sync.AcquireShared(1)
}

// AwaitContext blocks until the count reaches zero or ctx is done.
func (l *Latch) AwaitContext(ctx context.Context) error {
	return l.sync.AcquireSharedContext(ctx, 1)
}

// AwaitTimeout waits at most timeout for the count to reach zero and reports
// whether it did.
func (l *Latch) AwaitTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	return l.sync.TryAcquireSharedTimeout(ctx, 1, timeout)
}

// CountDown decrements the count, releasing every waiter when it reaches
// zero. Calls after that have no effect.
func (l *Latch) CountDown() {
	_, _ = l.sync.ReleaseShared(1)
}

// Count returns the current count.
func (l *Latch) Count() int64 {
	return l.sync.State()
}

func (l *Latch) String() string {
	return fmt.Sprintf("countdownlatch.Latch[count=%d]", l.sync.State())
}
