//go:build !solution

package waitgroup

import (
	"gitlab.com/slon/qsync/queuedsync"
)

// Состояние: счётчик. Add идёт через release, Wait через shared acquire.
type policy struct{ queuedsync.SharedOnly }

func (policy) TryAcquireShared(s *queuedsync.Synchronizer, _ int64) int64 {
	if s.State() == 0 {
		return 1
	}
	return -1
}

func (policy) TryReleaseShared(s *queuedsync.Synchronizer, delta int64) (bool, error) {
	for {
		c := s.State()
		next := c + delta
		if delta > 0 && next < c {
			panic(queuedsync.ErrCountOverflow)
		}
		if next < 0 {
			panic("negative WaitGroup counter")
		}
		if s.CompareAndSetState(c, next) {
			return next == 0, nil
		}
	}
}
