//go:build !solution

package syncbench

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/slon/qsync/countdownlatch"
	"gitlab.com/slon/qsync/queuedsync"
	"gitlab.com/slon/qsync/reentrantlock"
	"gitlab.com/slon/qsync/rwmutex"
	"gitlab.com/slon/qsync/semaphore"
)

// Runner executes scenarios against the synchronizers and checks their
// invariants.
type Runner struct {
	logger *zap.Logger
	reg    prometheus.Registerer
	runID  uuid.UUID

	mu      sync.Mutex
	metrics map[string]*queuedsync.Metrics

	maxConcurrent *prometheus.GaugeVec
	violations    *prometheus.CounterVec
}

// NewRunner creates a runner. Synchronizer metrics of every scenario are
// registered in reg.
func NewRunner(logger *zap.Logger, reg prometheus.Registerer) (*Runner, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	r := &Runner{
		logger:  logger.With(zap.String("run_id", id.String())),
		reg:     reg,
		runID:   id,
		metrics: make(map[string]*queuedsync.Metrics),
		maxConcurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qsync",
			Subsystem: "bench",
			Name:      "max_concurrent_holders",
			Help:      "Highest number of goroutines observed inside the critical section.",
		}, []string{"scenario"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qsync",
			Subsystem: "bench",
			Name:      "violations_total",
			Help:      "Invariant violations detected by scenarios.",
		}, []string{"scenario"}),
	}
	for _, c := range []prometheus.Collector{r.maxConcurrent, r.violations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RunID identifies this runner in logs and reports.
func (r *Runner) RunID() string {
	return r.runID.String()
}

func (r *Runner) syncOptions(sc Scenario) ([]queuedsync.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.metrics[sc.Name]
	if !ok {
		var err error
		m, err = queuedsync.NewMetrics(r.reg, sc.Name)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		r.metrics[sc.Name] = m
	}
	return []queuedsync.Option{
		queuedsync.WithLogger(r.logger.Named(sc.Name)),
		queuedsync.WithMetrics(m),
	}, nil
}

// Run executes one scenario. Invariant violations are reported in the
// returned Report; the error is set only if the run itself failed.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Report, error) {
	if err := sc.Validate(); err != nil {
		return Report{}, err
	}
	if sc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.Timeout)
		defer cancel()
	}

	opts, err := r.syncOptions(sc)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		RunID:      r.RunID(),
		Scenario:   sc.Name,
		Kind:       sc.Kind,
		Goroutines: sc.Goroutines,
		Fair:       sc.Fair,
	}

	r.logger.Info("scenario started",
		zap.String("scenario", sc.Name),
		zap.String("kind", sc.Kind),
		zap.Int("goroutines", sc.Goroutines),
		zap.Bool("fair", sc.Fair),
	)

	start := time.Now()
	switch sc.Kind {
	case KindMutex:
		err = runMutex(ctx, sc, opts, &rep)
	case KindSemaphore:
		err = runSemaphore(ctx, sc, opts, &rep)
	case KindLatch:
		err = runLatch(ctx, sc, opts, &rep)
	case KindRWMutex:
		err = runRWMutex(ctx, sc, opts, &rep)
	}
	rep.Elapsed = time.Since(start)

	r.maxConcurrent.WithLabelValues(sc.Name).Set(float64(rep.MaxConcurrent))
	r.violations.WithLabelValues(sc.Name).Add(float64(len(rep.Violations)))

	if err != nil {
		r.logger.Error("scenario failed", zap.String("scenario", sc.Name), zap.Error(err))
		return rep, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	r.logger.Info("scenario finished",
		zap.String("scenario", sc.Name),
		zap.Duration("elapsed", rep.Elapsed),
		zap.Int64("completed", rep.Completed),
		zap.Int64("max_concurrent", rep.MaxConcurrent),
		zap.Strings("violations", rep.Violations),
	)
	return rep, nil
}

// probe measures how many goroutines are inside a critical section.
type probe struct {
	inside    atomic.Int64
	max       atomic.Int64
	completed atomic.Int64
}

func (p *probe) enter() int64 {
	cur := p.inside.Add(1)
	for {
		m := p.max.Load()
		if cur <= m || p.max.CompareAndSwap(m, cur) {
			return cur
		}
	}
}

func (p *probe) leave() {
	p.inside.Add(-1)
	p.completed.Add(1)
}

func hold(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
		return
	}
	runtime.Gosched()
}

func runMutex(ctx context.Context, sc Scenario, opts []queuedsync.Option, rep *Report) error {
	m := reentrantlock.New(sc.Fair, opts...)
	var p probe

	g, ctx := errgroup.WithContext(ctx)
	for range sc.Goroutines {
		g.Go(func() error {
			for range sc.Iterations {
				if err := m.LockContext(ctx); err != nil {
					return err
				}
				p.enter()
				hold(sc.Hold)
				p.leave()
				if err := m.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()

	rep.Limit = 1
	rep.Expected = int64(sc.Goroutines * sc.Iterations)
	rep.observe(&p, err)
	return err
}

func runSemaphore(ctx context.Context, sc Scenario, opts []queuedsync.Option, rep *Report) error {
	sem := semaphore.New(sc.Permits, sc.Fair, opts...)
	var p probe

	g, ctx := errgroup.WithContext(ctx)
	for range sc.Goroutines {
		g.Go(func() error {
			for range sc.Iterations {
				if err := sem.AcquireContext(ctx, 1); err != nil {
					return err
				}
				p.enter()
				hold(sc.Hold)
				p.leave()
				sem.Release()
			}
			return nil
		})
	}
	err := g.Wait()

	rep.Limit = sc.Permits
	rep.Expected = int64(sc.Goroutines * sc.Iterations)
	rep.observe(&p, err)
	if err == nil && sem.AvailablePermits() != sc.Permits {
		rep.violate("%d permits left, want %d", sem.AvailablePermits(), sc.Permits)
	}
	return err
}

// runLatch: каждый рабочий goroutine один раз вызывает CountDown, ожидающие
// не должны проснуться раньше последнего.
func runLatch(ctx context.Context, sc Scenario, opts []queuedsync.Option, rep *Report) error {
	latch := countdownlatch.New(int64(sc.Goroutines), opts...)
	waiters := max(sc.Waiters, 1)

	var (
		p     probe
		early atomic.Int64
	)
	g, ctx := errgroup.WithContext(ctx)
	for range waiters {
		g.Go(func() error {
			if err := latch.AwaitContext(ctx); err != nil {
				return err
			}
			if p.completed.Load() != int64(sc.Goroutines) {
				early.Add(1)
			}
			return nil
		})
	}
	for range sc.Goroutines {
		g.Go(func() error {
			p.enter()
			hold(sc.Hold)
			p.leave()
			latch.CountDown()
			return nil
		})
	}
	err := g.Wait()

	rep.Expected = int64(sc.Goroutines)
	rep.observe(&p, err)
	if n := early.Load(); n > 0 {
		rep.violate("%d waiters released before the last count down", n)
	}
	return err
}

func runRWMutex(ctx context.Context, sc Scenario, opts []queuedsync.Option, rep *Report) error {
	rw := rwmutex.New(sc.Fair, opts...)

	var (
		writers, readers probe
		overlap          atomic.Int64
	)
	g, ctx := errgroup.WithContext(ctx)
	for i := range sc.Goroutines {
		writer := i < sc.Writers
		g.Go(func() error {
			for range sc.Iterations {
				if writer {
					if err := rw.LockContext(ctx); err != nil {
						return err
					}
					if writers.enter() != 1 || readers.inside.Load() != 0 {
						overlap.Add(1)
					}
					hold(sc.Hold)
					writers.leave()
					if err := rw.Unlock(); err != nil {
						return err
					}
					continue
				}

				if err := rw.RLockContext(ctx); err != nil {
					return err
				}
				readers.enter()
				if writers.inside.Load() != 0 {
					overlap.Add(1)
				}
				hold(sc.Hold)
				readers.leave()
				if err := rw.RUnlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()

	rep.Limit = 1
	rep.Expected = int64(sc.Writers * sc.Iterations)
	rep.observe(&writers, err)
	rep.MaxReaders = readers.max.Load()
	if n := overlap.Load(); n > 0 {
		rep.violate("writer overlapped with another holder %d times", n)
	}
	if err == nil && readers.completed.Load() != int64((sc.Goroutines-sc.Writers)*sc.Iterations) {
		rep.violate("readers completed %d sections, want %d",
			readers.completed.Load(), (sc.Goroutines-sc.Writers)*sc.Iterations)
	}
	return err
}
