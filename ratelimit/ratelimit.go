//go:build !solution

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/slon/qsync/queuedsync"
	"gitlab.com/slon/qsync/semaphore"
)

// Limiter is precise rate limiter with context support.
//
// Every successful Acquire takes a permit from a fair semaphore; the permit
// comes back interval later, so at most maxCount calls succeed within any
// window of that length.
type Limiter struct {
	permits  *semaphore.Semaphore
	interval time.Duration
	clock    clockwork.Clock

	stopped context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	refill map[clockwork.Timer]struct{}
}

var ErrStopped = errors.New("limiter stopped")

// Option configures a Limiter.
type Option func(*options)

type options struct {
	clock clockwork.Clock
	sync  []queuedsync.Option
}

// WithClock sets the clock that schedules permit refills.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
		o.sync = append(o.sync, queuedsync.WithClock(c))
	}
}

// WithSyncOptions passes options to the underlying semaphore.
func WithSyncOptions(opts ...queuedsync.Option) Option {
	return func(o *options) {
		o.sync = append(o.sync, opts...)
	}
}

// NewLimiter returns limiter that throttles rate of successful Acquire() calls
// to maxCount events at any given interval. A zero interval means no limit.
func NewLimiter(maxCount int, interval time.Duration, opts ...Option) *Limiter {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		permits:  semaphore.New(int64(maxCount), true, o.sync...),
		interval: interval,
		clock:    o.clock,
		stopped:  ctx,
		stop:     cancel,
		refill:   make(map[clockwork.Timer]struct{}),
	}
}

// Acquire blocks until the rate allows one more event, ctx is done or the
// limiter is stopped.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.stopped.Err() != nil {
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.interval == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	detach := context.AfterFunc(l.stopped, cancel)
	defer detach()

	if err := l.permits.AcquireContext(ctx, 1); err != nil {
		if l.stopped.Err() != nil {
			return ErrStopped
		}
		return err
	}
	l.scheduleRefill()
	return nil
}

func (l *Limiter) scheduleRefill() {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Stop мог уже очистить refill: новый таймер никто не остановит.
	if l.stopped.Err() != nil {
		return
	}

	var t clockwork.Timer
	t = l.clock.AfterFunc(l.interval, func() {
		l.mu.Lock()
		delete(l.refill, t)
		l.mu.Unlock()
		l.permits.Release()
	})
	l.refill[t] = struct{}{}
}

// Stop makes every pending and future Acquire fail with ErrStopped.
// It is safe to call Stop more than once.
func (l *Limiter) Stop() {
	l.stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	// Разрешения после остановки уже не нужны.
	for t := range l.refill {
		t.Stop()
		delete(l.refill, t)
	}
}
