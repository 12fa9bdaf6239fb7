package queuedsync

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestSynchronizer_FastPathSkipsQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	policy := NewMockPolicy(ctrl)
	s := New(policy)

	policy.EXPECT().TryAcquire(s, int64(1)).Return(true)
	s.Acquire(1)

	require.False(t, s.HasContended())
	require.False(t, s.HasQueuedThreads())
	require.Zero(t, s.QueueLength())
}

func TestSynchronizer_ReleaseErrorIsPropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	policy := NewMockPolicy(ctrl)
	s := New(policy, WithLogger(zaptest.NewLogger(t)))

	policy.EXPECT().TryRelease(s, int64(1)).Return(false, ErrNotHeld)
	free, err := s.Release(1)

	require.ErrorIs(t, err, ErrNotHeld)
	require.False(t, free)
}

func TestSynchronizer_PanickingHookCancelsNode(t *testing.T) {
	ctrl := gomock.NewController(t)
	policy := NewMockPolicy(ctrl)
	s := New(policy)

	gomock.InOrder(
		policy.EXPECT().TryAcquire(s, int64(1)).Return(false),
		policy.EXPECT().TryAcquire(s, int64(1)).DoAndReturn(func(*Synchronizer, int64) bool {
			panic(ErrCountOverflow)
		}),
	)

	require.PanicsWithValue(t, ErrCountOverflow, func() { s.Acquire(1) })
	require.True(t, s.HasContended())
	require.False(t, s.HasQueuedThreads())
	require.Zero(t, s.QueueLength())
}

func TestSynchronizer_StatePrimitives(t *testing.T) {
	s := New(testMutex{})

	require.Zero(t, s.State())
	require.True(t, s.CompareAndSetState(0, 5))
	require.False(t, s.CompareAndSetState(0, 6))
	require.Equal(t, int64(5), s.State())
	s.SetState(7)
	require.Equal(t, int64(7), s.State())
	require.Equal(t, "queuedsync.Synchronizer[state=7, empty queue]", s.String())
}

func TestSynchronizer_MutualExclusion(t *testing.T) {
	const (
		goroutines = 32
		iterations = 500
	)

	s := New(testMutex{})
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		counter int
	)

	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			for range iterations {
				s.Acquire(1)
				cur := inside.Add(1)
				for {
					m := maxSeen.Load()
					if cur <= m || maxSeen.CompareAndSwap(m, cur) {
						break
					}
				}
				counter++
				inside.Add(-1)
				if _, err := s.Release(1); err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), maxSeen.Load())
	require.Equal(t, goroutines*iterations, counter)
}

func TestSynchronizer_NoLostWakeup(t *testing.T) {
	const total = 10_000

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for round := range 5 {
		n := 2 + rnd.Intn(49)
		t.Run(fmt.Sprintf("round%d_%dgoroutines", round, n), func(t *testing.T) {
			s := New(testMutex{})

			var g errgroup.Group
			for range n {
				g.Go(func() error {
					for range total / n {
						s.Acquire(1)
						if _, err := s.Release(1); err != nil {
							return err
						}
					}
					return nil
				})
			}

			done := make(chan error, 1)
			go func() { done <- g.Wait() }()

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(30 * time.Second):
				t.Fatalf("goroutines are stuck, queue length %d", s.QueueLength())
			}
			require.False(t, s.HasQueuedThreads())
		})
	}
}

func TestSynchronizer_FIFOHandoff(t *testing.T) {
	const waiters = 6

	s := New(testMutex{})
	s.Acquire(1)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire(1)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			_, err := s.Release(1)
			assert.NoError(t, err)
		}()
		waitQueued(t, s, i+1)
	}

	mustRelease(t, s)
	wg.Wait()

	want := []int{0, 1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("wakeup order mismatch (-want +got):\n%s", diff)
	}
}

func TestSynchronizer_TimeoutInTheMiddle(t *testing.T) {
	s := New(testMutex{})
	s.Acquire(1)

	results := make(chan string, 3)
	acquireAndReport := func(name string) {
		s.Acquire(1)
		results <- name
		_, err := s.Release(1)
		assert.NoError(t, err)
	}

	go acquireAndReport("b")
	waitQueued(t, s, 1)

	go func() {
		ok := s.TryAcquireNanos(1, int64(50*time.Millisecond))
		if ok {
			_, _ = s.Release(1)
		}
		results <- fmt.Sprintf("c:%v", ok)
	}()
	waitQueued(t, s, 2)

	go acquireAndReport("d")
	waitQueued(t, s, 3)

	require.Equal(t, "c:false", <-results)
	require.Equal(t, 2, s.QueueLength())

	mustRelease(t, s)
	require.Equal(t, "b", <-results)
	require.Equal(t, "d", <-results)
	require.False(t, s.HasQueuedThreads())
}

func TestSynchronizer_TimeoutAtTail(t *testing.T) {
	s := New(testMutex{})
	s.Acquire(1)

	ok, err := s.TryAcquireTimeout(context.Background(), 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, s.HasQueuedThreads())

	ok, err = s.TryAcquireTimeout(context.Background(), 1, 0)
	require.NoError(t, err)
	require.False(t, ok)

	mustRelease(t, s)

	ok, err = s.TryAcquireTimeout(context.Background(), 1, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	mustRelease(t, s)
}

func TestSynchronizer_AcquireContext(t *testing.T) {
	t.Run("done before entry", func(t *testing.T) {
		s := New(testMutex{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, s.AcquireContext(ctx, 1), context.Canceled)
		require.Zero(t, s.State())
	})

	t.Run("cancelled while queued", func(t *testing.T) {
		s := New(testMutex{})
		s.Acquire(1)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- s.AcquireContext(ctx, 1) }()
		waitQueued(t, s, 1)

		cancel()
		require.ErrorIs(t, <-errCh, context.Canceled)
		require.Zero(t, s.QueueLength())
		require.Equal(t, int64(1), s.State())
		mustRelease(t, s)
	})

	t.Run("deadline while queued", func(t *testing.T) {
		s := New(testMutex{})
		s.Acquire(1)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		ok, err := s.TryAcquireTimeout(ctx, 1, time.Minute)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.False(t, ok)
		mustRelease(t, s)
	})

	t.Run("succeeds after release", func(t *testing.T) {
		s := New(testMutex{})
		s.Acquire(1)

		errCh := make(chan error, 1)
		go func() {
			err := s.AcquireContext(context.Background(), 1)
			if err == nil {
				_, err = s.Release(1)
			}
			errCh <- err
		}()
		waitQueued(t, s, 1)

		mustRelease(t, s)
		require.NoError(t, <-errCh)
	})
}

func TestSynchronizer_FakeClockTimeout(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := New(testMutex{}, WithClock(fc))
	s.Acquire(1)

	res := make(chan bool, 1)
	go func() { res <- s.TryAcquireNanos(1, int64(time.Second)) }()

	fc.BlockUntil(1)
	fc.Advance(time.Second)

	require.False(t, <-res)
	require.Zero(t, s.QueueLength())
	mustRelease(t, s)
}

func TestSynchronizer_Introspection(t *testing.T) {
	s := New(testMutex{})
	s.Acquire(1)
	require.Equal(t, GoroutineID(), s.ExclusiveOwner())

	const waiters = 3
	ids := make(chan int64, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- GoroutineID()
			s.Acquire(1)
			_, err := s.Release(1)
			assert.NoError(t, err)
		}()
		waitQueued(t, s, i+1)
	}

	first := <-ids
	require.True(t, s.HasQueuedThreads())
	require.True(t, s.HasContended())
	require.Len(t, s.QueuedThreads(), waiters)
	require.Len(t, s.ExclusiveQueuedThreads(), waiters)
	require.Empty(t, s.SharedQueuedThreads())
	require.True(t, s.IsQueued(first))
	require.False(t, s.IsQueued(GoroutineID()))
	require.True(t, s.ApparentlyFirstQueuedIsExclusive())
	require.True(t, s.HasQueuedPredecessors())

	gid, ok := s.FirstQueuedThread()
	require.True(t, ok)
	require.Equal(t, first, gid)
	require.Contains(t, s.String(), "non-empty queue")

	mustRelease(t, s)
	wg.Wait()

	_, ok = s.FirstQueuedThread()
	require.False(t, ok)
	require.False(t, s.HasQueuedPredecessors())
}

func TestSynchronizer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	_, err = NewMetrics(reg, "test")
	require.Error(t, err, "duplicate registration must fail")

	s := New(testMutex{}, WithMetrics(m))
	s.Acquire(1)
	require.False(t, s.TryAcquireNanos(1, int64(5*time.Millisecond)))
	mustRelease(t, s)

	require.Equal(t, 1.0, testutil.ToFloat64(m.acquires.WithLabelValues(modeExclusive, pathFast)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.cancels.WithLabelValues(modeExclusive, reasonTimeout)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.releases.WithLabelValues(modeExclusive)))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.parks.WithLabelValues(modeExclusive)), 1.0)
}

func TestSynchronizer_UnsupportedHooks(t *testing.T) {
	ex := New(testMutex{})
	require.PanicsWithValue(t, ErrUnsupported, func() { ex.AcquireShared(1) })

	sh := New(testGate{})
	require.PanicsWithValue(t, ErrUnsupported, func() { sh.Acquire(1) })
	require.PanicsWithValue(t, ErrUnsupported, func() { _ = sh.NewCondition().Signal() })
}
