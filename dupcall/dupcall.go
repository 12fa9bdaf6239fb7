//go:build !solution

package dupcall

import (
	"context"
	"sync"

	"gitlab.com/slon/qsync/countdownlatch"
)

type flight struct {
	done    *countdownlatch.Latch
	cancel  context.CancelFunc
	waiters int

	res interface{}
	err error
}

// Call collapses concurrent calls of Do into a single callback execution.
type Call struct {
	mu  sync.Mutex
	cur *flight
}

// Do runs cb, or joins a run already in progress, and returns its result.
//
// The callback gets its own context, cancelled once every caller waiting for
// the result has given up. A caller whose ctx is done returns ctx.Err()
// without waiting.
func (o *Call) Do(
	ctx context.Context,
	cb func(context.Context) (interface{}, error),
) (result interface{}, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	f := o.cur
	if f == nil {
		f = o.start(cb)
	}
	f.waiters++
	o.mu.Unlock()

	if err := f.done.AwaitContext(ctx); err != nil {
		o.leave(f)
		return nil, err
	}
	return f.res, f.err
}

// start launches cb. Called with o.mu held.
func (o *Call) start(cb func(context.Context) (interface{}, error)) *flight {
	cbCtx, cancel := context.WithCancel(context.Background())
	f := &flight{
		done:   countdownlatch.New(1),
		cancel: cancel,
	}
	o.cur = f

	go func() {
		defer cancel()
		f.res, f.err = cb(cbCtx)

		o.mu.Lock()
		if o.cur == f {
			o.cur = nil
		}
		o.mu.Unlock()
		f.done.CountDown()
	}()
	return f
}

// leave drops a caller that stopped waiting. The last one cancels the
// callback and detaches the flight so the next Do starts afresh.
func (o *Call) leave(f *flight) {
	o.mu.Lock()
	defer o.mu.Unlock()

	f.waiters--
	if f.waiters == 0 {
		f.cancel()
		if o.cur == f {
			o.cur = nil
		}
	}
}
