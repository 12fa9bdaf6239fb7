package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"gitlab.com/slon/qsync/ratelimit"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := ratelimit.NewLimiter(1, 0)
	defer l.Stop()

	for range 1000 {
		require.NoError(t, l.Acquire(context.Background()))
	}
}

func TestLimiter_RefillAfterInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := ratelimit.NewLimiter(2, time.Second, ratelimit.WithClock(fc))
	defer l.Stop()

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()

	select {
	case <-done:
		t.Fatal("third acquire passed before refill")
	case <-time.After(20 * time.Millisecond):
	}

	fc.Advance(time.Second)
	require.NoError(t, <-done)
}

func TestLimiter_Rate(t *testing.T) {
	const (
		maxCount = 10
		interval = 50 * time.Millisecond
	)
	l := ratelimit.NewLimiter(maxCount, interval)
	defer l.Stop()

	start := time.Now()
	var g errgroup.Group
	for range 3 * maxCount {
		g.Go(func() error { return l.Acquire(context.Background()) })
	}
	require.NoError(t, g.Wait())
	require.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := ratelimit.NewLimiter(1, time.Hour)
	defer l.Stop()

	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
}

func TestLimiter_Stop(t *testing.T) {
	l := ratelimit.NewLimiter(1, time.Hour)
	require.NoError(t, l.Acquire(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	l.Stop()
	require.ErrorIs(t, <-done, ratelimit.ErrStopped)
	require.ErrorIs(t, l.Acquire(context.Background()), ratelimit.ErrStopped)
	l.Stop()
}
