//go:build !solution

package keylock

import (
	"context"
	"slices"
	"sync"

	"gitlab.com/slon/qsync/queuedsync"
	"gitlab.com/slon/qsync/semaphore"
)

// KeyLock locks sets of string keys. Each key is guarded by a binary
// semaphore; keys are always taken in sorted order, so overlapping sets
// cannot deadlock.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Semaphore
	opts  []queuedsync.Option
}

// New creates KeyLock. Options are passed to every per-key semaphore.
func New(opts ...queuedsync.Option) *KeyLock {
	return &KeyLock{
		locks: make(map[string]*semaphore.Semaphore),
		opts:  opts,
	}
}

func (l *KeyLock) lockFor(key string) *semaphore.Semaphore {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[key]
	if !ok {
		sem = semaphore.New(1, true, l.opts...)
		l.locks[key] = sem
	}
	return sem
}

// LockKeys locks all keys or none. If cancel is closed before every key is
// taken, the keys taken so far are released and canceled is true; unlock is
// nil in that case.
func (l *KeyLock) LockKeys(keys []string, cancel <-chan struct{}) (canceled bool, unlock func()) {
	select {
	case <-cancel:
		return true, nil
	default:
	}

	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if cancel != nil {
		go func() {
			select {
			case <-cancel:
				stop()
			case <-ctx.Done():
			}
		}()
	}

	taken := make([]*semaphore.Semaphore, 0, len(keys))
	release := func() {
		for i := len(taken) - 1; i >= 0; i-- {
			taken[i].Release()
		}
	}

	for _, key := range keys {
		sem := l.lockFor(key)
		if err := sem.AcquireContext(ctx, 1); err != nil {
			release()
			return true, nil
		}
		taken = append(taken, sem)
	}

	var once sync.Once
	return false, func() { once.Do(release) }
}
