//go:build !solution

package countdownlatch

import (
	"gitlab.com/slon/qsync/queuedsync"
)

// Состояние: оставшееся число CountDown.
type policy struct{ queuedsync.SharedOnly }

func (policy) TryAcquireShared(s *queuedsync.Synchronizer, _ int64) int64 {
	if s.State() == 0 {
		return 1
	}
	return -1
}

func (policy) TryReleaseShared(s *queuedsync.Synchronizer, _ int64) (bool, error) {
	for {
		c := s.State()
		if c == 0 {
			return false, nil
		}
		if s.CompareAndSetState(c, c-1) {
			return c == 1, nil
		}
	}
}
