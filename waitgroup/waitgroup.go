//go:build !solution

package waitgroup

import (
	"context"
	"fmt"

	"gitlab.com/slon/qsync/queuedsync"
)

// A WaitGroup waits for a collection of goroutines to finish.
// The main goroutine calls Add to set the number of
// goroutines to wait for. Then each of the goroutines
// runs and calls Done when finished. At the same time,
// Wait can be used to block until all goroutines have finished.
type WaitGroup struct {
	sync *queuedsync.Synchronizer
}

// New creates WaitGroup.
func New(opts ...queuedsync.Option) *WaitGroup {
	return &WaitGroup{sync: queuedsync.New(policy{}, opts...)}
}

// Add adds delta, which may be negative, to the WaitGroup counter.
// If the counter becomes zero, all goroutines blocked on Wait are released.
// If the counter goes negative, Add panics.
//
// Note that calls with a positive delta that occur when the counter is zero
// must happen before a Wait. Calls with a negative delta, or calls with a
// positive delta that start when the counter is greater than zero, may happen
// at any time.
// If a WaitGroup is reused to wait for several independent sets of events,
// new Add calls must happen after all previous Wait calls have returned.
func (wg *WaitGroup) Add(delta int) {
	if delta == 0 {
		return
	}
	_, _ = wg.sync.ReleaseShared(int64(delta))
}

// Done decrements the WaitGroup counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait blocks until the WaitGroup counter is zero.
func (wg *WaitGroup) Wait() {
	wg.sync.AcquireShared(1)
}

// WaitContext blocks until the counter is zero or ctx is done.
func (wg *WaitGroup) WaitContext(ctx context.Context) error {
	return wg.sync.AcquireSharedContext(ctx, 1)
}

func (wg *WaitGroup) String() string {
	return fmt.Sprintf("waitgroup.WaitGroup[counter=%d]", wg.sync.State())
}
