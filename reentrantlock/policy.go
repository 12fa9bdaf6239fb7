//go:build !solution

package reentrantlock

import (
	"gitlab.com/slon/qsync/queuedsync"
)

// Состояние: счётчик захватов, владелец хранится отдельно.

type nonfairPolicy struct{ queuedsync.ExclusiveOnly }

func (nonfairPolicy) TryAcquire(s *queuedsync.Synchronizer, acquires int64) bool {
	return nonfairTryAcquire(s, acquires)
}

func (nonfairPolicy) TryRelease(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	return tryRelease(s, releases)
}

func (nonfairPolicy) IsHeldExclusively(s *queuedsync.Synchronizer) bool {
	return isHeldExclusively(s)
}

type fairPolicy struct{ queuedsync.ExclusiveOnly }

func (fairPolicy) TryAcquire(s *queuedsync.Synchronizer, acquires int64) bool {
	cur := queuedsync.GoroutineID()
	c := s.State()
	if c == 0 {
		if !s.HasQueuedPredecessors() && s.CompareAndSetState(0, acquires) {
			s.SetExclusiveOwner(cur)
			return true
		}
		return false
	}
	if s.ExclusiveOwner() == cur {
		s.SetState(reenter(c, acquires))
		return true
	}
	return false
}

func (fairPolicy) TryRelease(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	return tryRelease(s, releases)
}

func (fairPolicy) IsHeldExclusively(s *queuedsync.Synchronizer) bool {
	return isHeldExclusively(s)
}

func nonfairTryAcquire(s *queuedsync.Synchronizer, acquires int64) bool {
	cur := queuedsync.GoroutineID()
	c := s.State()
	if c == 0 {
		if s.CompareAndSetState(0, acquires) {
			s.SetExclusiveOwner(cur)
			return true
		}
		return false
	}
	if s.ExclusiveOwner() == cur {
		s.SetState(reenter(c, acquires))
		return true
	}
	return false
}

func reenter(c, acquires int64) int64 {
	next := c + acquires
	if next < c {
		panic(queuedsync.ErrCountOverflow)
	}
	return next
}

func tryRelease(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	if !isHeldExclusively(s) {
		return false, queuedsync.ErrNotHeld
	}
	c := s.State() - releases
	if c < 0 {
		return false, queuedsync.ErrNotHeld
	}
	free := c == 0
	if free {
		s.SetExclusiveOwner(0)
	}
	s.SetState(c)
	return free, nil
}

func isHeldExclusively(s *queuedsync.Synchronizer) bool {
	return s.State() != 0 && s.ExclusiveOwner() == queuedsync.GoroutineID()
}
