//go:build !solution

package semaphore

import (
	"gitlab.com/slon/qsync/queuedsync"
)

// Состояние: число свободных разрешений.

type nonfairPolicy struct{ queuedsync.SharedOnly }

func (nonfairPolicy) TryAcquireShared(s *queuedsync.Synchronizer, acquires int64) int64 {
	return nonfairTryAcquireShared(s, acquires)
}

func (nonfairPolicy) TryReleaseShared(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	return tryReleaseShared(s, releases)
}

type fairPolicy struct{ queuedsync.SharedOnly }

func (fairPolicy) TryAcquireShared(s *queuedsync.Synchronizer, acquires int64) int64 {
	for {
		if s.HasQueuedPredecessors() {
			return -1
		}
		available := s.State()
		remaining := available - acquires
		if remaining > available {
			panic(queuedsync.ErrCountOverflow)
		}
		if remaining < 0 || s.CompareAndSetState(available, remaining) {
			return remaining
		}
	}
}

func (fairPolicy) TryReleaseShared(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	return tryReleaseShared(s, releases)
}

func nonfairTryAcquireShared(s *queuedsync.Synchronizer, acquires int64) int64 {
	for {
		available := s.State()
		remaining := available - acquires
		if remaining > available {
			panic(queuedsync.ErrCountOverflow)
		}
		if remaining < 0 || s.CompareAndSetState(available, remaining) {
			return remaining
		}
	}
}

func tryReleaseShared(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	if releases < 0 {
		return false, queuedsync.ErrNegativeArg
	}
	for {
		cur := s.State()
		next := cur + releases
		if next < cur {
			panic(queuedsync.ErrCountOverflow)
		}
		if s.CompareAndSetState(cur, next) {
			return true, nil
		}
	}
}
