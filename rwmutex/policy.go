//go:build !solution

package rwmutex

import (
	"sync"

	"gitlab.com/slon/qsync/queuedsync"
)

// Старшие 32 бита состояния считают read-захваты, младшие считают write-захваты.
const (
	sharedShift   = 32
	sharedUnit    = int64(1) << sharedShift
	exclusiveMask = sharedUnit - 1
	maxCount      = int64(1)<<31 - 1
)

func sharedCount(c int64) int64    { return c >> sharedShift }
func exclusiveCount(c int64) int64 { return c & exclusiveMask }

// readHolds tracks read holds per goroutine. Each counter is touched only by
// its own goroutine.
type readHolds struct {
	m sync.Map // int64 -> *int64
}

func (h *readHolds) get(gid int64) int64 {
	if v, ok := h.m.Load(gid); ok {
		return *v.(*int64)
	}
	return 0
}

func (h *readHolds) inc(gid int64) {
	v, _ := h.m.LoadOrStore(gid, new(int64))
	*v.(*int64)++
}

// dec reports false if gid has no hold to give back.
func (h *readHolds) dec(gid int64) bool {
	v, ok := h.m.Load(gid)
	if !ok {
		return false
	}
	cnt := v.(*int64)
	*cnt--
	if *cnt == 0 {
		h.m.Delete(gid)
	}
	return true
}

type policy struct {
	fair  bool
	holds readHolds
}

func (p *policy) writerShouldBlock(s *queuedsync.Synchronizer) bool {
	return p.fair && s.HasQueuedPredecessors()
}

func (p *policy) readerShouldBlock(s *queuedsync.Synchronizer) bool {
	if p.fair {
		return s.HasQueuedPredecessors()
	}
	// не даём читателям бесконечно обгонять писателя во главе очереди
	return s.ApparentlyFirstQueuedIsExclusive()
}

func (p *policy) TryAcquire(s *queuedsync.Synchronizer, acquires int64) bool {
	cur := queuedsync.GoroutineID()
	c := s.State()
	if c != 0 {
		// есть читатели, либо писатель не мы
		if w := exclusiveCount(c); w == 0 || s.ExclusiveOwner() != cur {
			return false
		} else if w+acquires > maxCount {
			panic(queuedsync.ErrCountOverflow)
		}
		s.SetState(c + acquires)
		return true
	}
	if p.writerShouldBlock(s) || !s.CompareAndSetState(c, c+acquires) {
		return false
	}
	s.SetExclusiveOwner(cur)
	return true
}

func (p *policy) TryRelease(s *queuedsync.Synchronizer, releases int64) (bool, error) {
	if !isHeldExclusively(s) {
		return false, queuedsync.ErrNotHeld
	}
	c := s.State()
	// Condition отпускает всё состояние целиком, вместе с read-битами
	if releases > exclusiveCount(c) && releases != c {
		return false, queuedsync.ErrNotHeld
	}
	next := c - releases
	free := exclusiveCount(next) == 0
	if free {
		s.SetExclusiveOwner(0)
	}
	s.SetState(next)
	return free, nil
}

func (p *policy) TryAcquireShared(s *queuedsync.Synchronizer, _ int64) int64 {
	cur := queuedsync.GoroutineID()
	c := s.State()
	if exclusiveCount(c) != 0 && s.ExclusiveOwner() != cur {
		return -1
	}
	if !p.readerShouldBlock(s) && sharedCount(c) < maxCount && s.CompareAndSetState(c, c+sharedUnit) {
		p.holds.inc(cur)
		return 1
	}
	return p.fullTryAcquireShared(s, cur)
}

// fullTryAcquireShared handles CAS misses and reentrant reads that the fast
// path refused because of the queue.
func (p *policy) fullTryAcquireShared(s *queuedsync.Synchronizer, cur int64) int64 {
	for {
		c := s.State()
		if exclusiveCount(c) != 0 {
			if s.ExclusiveOwner() != cur {
				return -1
			}
		} else if p.readerShouldBlock(s) && p.holds.get(cur) == 0 {
			return -1
		}
		if sharedCount(c) == maxCount {
			panic(queuedsync.ErrCountOverflow)
		}
		if s.CompareAndSetState(c, c+sharedUnit) {
			p.holds.inc(cur)
			return 1
		}
	}
}

func (p *policy) TryReleaseShared(s *queuedsync.Synchronizer, _ int64) (bool, error) {
	if !p.holds.dec(queuedsync.GoroutineID()) {
		return false, queuedsync.ErrNotHeld
	}
	for {
		c := s.State()
		next := c - sharedUnit
		if s.CompareAndSetState(c, next) {
			// снятие read-захвата ничего не даёт читателям,
			// но писатель может пройти, если всё свободно
			return next == 0, nil
		}
	}
}

func (p *policy) IsHeldExclusively(s *queuedsync.Synchronizer) bool {
	return isHeldExclusively(s)
}

// tryWriteLock ignores fairness.
func (p *policy) tryWriteLock(s *queuedsync.Synchronizer) bool {
	cur := queuedsync.GoroutineID()
	c := s.State()
	if c != 0 {
		w := exclusiveCount(c)
		if w == 0 || s.ExclusiveOwner() != cur {
			return false
		}
		if w == maxCount {
			panic(queuedsync.ErrCountOverflow)
		}
	}
	if !s.CompareAndSetState(c, c+1) {
		return false
	}
	s.SetExclusiveOwner(cur)
	return true
}

// tryReadLock ignores fairness and the writer at the head of the queue.
func (p *policy) tryReadLock(s *queuedsync.Synchronizer) bool {
	cur := queuedsync.GoroutineID()
	for {
		c := s.State()
		if exclusiveCount(c) != 0 && s.ExclusiveOwner() != cur {
			return false
		}
		if sharedCount(c) == maxCount {
			panic(queuedsync.ErrCountOverflow)
		}
		if s.CompareAndSetState(c, c+sharedUnit) {
			p.holds.inc(cur)
			return true
		}
	}
}

func isHeldExclusively(s *queuedsync.Synchronizer) bool {
	return exclusiveCount(s.State()) != 0 && s.ExclusiveOwner() == queuedsync.GoroutineID()
}
