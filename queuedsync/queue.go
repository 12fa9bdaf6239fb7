//go:build !solution

package queuedsync

import "github.com/petermattis/goid"

// enq appends n to the queue, creating the sentinel head on first
// contention. It returns n's predecessor.
func (s *Synchronizer) enq(n *node) *node {
	for {
		t := s.tail.Load()
		if t == nil {
			if s.head.CompareAndSwap(nil, &node{}) {
				s.tail.Store(s.head.Load())
			}
			continue
		}
		n.prev.Store(t)
		if s.tail.CompareAndSwap(t, n) {
			t.next.Store(n)
			return t
		}
	}
}

func (s *Synchronizer) addWaiter(shared bool) *node {
	n := newNode(shared)
	s.enq(n)
	return n
}

// setHead makes n the sentinel. Called only by the goroutine that just
// acquired through n.
func (s *Synchronizer) setHead(n *node) {
	s.head.Store(n)
	n.waiter.Store(nil)
	n.prev.Store(nil)
}

// unparkSuccessor wakes the first live waiter after n. When n.next is stale
// or cancelled the queue is scanned backwards from the tail, since prev links
// are always consistent.
func (s *Synchronizer) unparkSuccessor(n *node) {
	if ws := n.status.Load(); ws < 0 {
		n.status.CompareAndSwap(ws, statusInitial)
	}

	succ := n.next.Load()
	if succ == nil || succ.status.Load() > 0 {
		succ = nil
		for t := s.tail.Load(); t != nil && t != n; t = t.prev.Load() {
			if t.status.Load() <= 0 {
				succ = t
			}
		}
	}
	if succ != nil {
		if w := succ.waiter.Load(); w != nil {
			w.unpark()
		}
	}
}

// shouldParkAfterFailedAcquire makes sure the predecessor will signal n and
// reports whether n may park now. Cancelled predecessors are skipped.
func (s *Synchronizer) shouldParkAfterFailedAcquire(pred, n *node) bool {
	ws := pred.status.Load()
	if ws == statusSignal {
		return true
	}
	if ws > 0 {
		for {
			pred = pred.prev.Load()
			n.prev.Store(pred)
			if pred.status.Load() <= 0 {
				break
			}
		}
		pred.next.Store(n)
	} else {
		// Initial или Propagate: просим предшественника разбудить нас,
		// но перед парковкой пробуем захватить ещё раз.
		pred.status.CompareAndSwap(ws, statusSignal)
	}
	return false
}

// cancelAcquire abandons an in-flight acquisition. Only n and its immediate
// neighbours are mutated, each through CAS.
func (s *Synchronizer) cancelAcquire(n *node) {
	if n == nil {
		return
	}
	n.waiter.Store(nil)

	pred := n.prev.Load()
	for pred.status.Load() > 0 {
		pred = pred.prev.Load()
		n.prev.Store(pred)
	}
	predNext := pred.next.Load()

	n.status.Store(statusCancelled)

	if s.tail.CompareAndSwap(n, pred) {
		pred.next.CompareAndSwap(predNext, nil)
		return
	}

	ws := pred.status.Load()
	if pred != s.head.Load() &&
		(ws == statusSignal || (ws <= 0 && pred.status.CompareAndSwap(ws, statusSignal))) &&
		pred.waiter.Load() != nil {
		if next := n.next.Load(); next != nil && next.status.Load() <= 0 {
			pred.next.CompareAndSwap(predNext, next)
		}
	} else {
		// Предшественник является головой или сам отменён: будим следующего,
		// чтобы он перестроил ссылки и не потерял сигнал.
		s.unparkSuccessor(n)
	}
	n.next.Store(n)
}

// HasQueuedThreads reports whether any goroutine may be waiting. The answer
// is a snapshot and may be stale by the time it is used.
func (s *Synchronizer) HasQueuedThreads() bool {
	return s.head.Load() != s.tail.Load()
}

// HasContended reports whether any goroutine has ever had to wait.
func (s *Synchronizer) HasContended() bool {
	return s.head.Load() != nil
}

// FirstQueuedThread returns the id of the longest waiting goroutine.
func (s *Synchronizer) FirstQueuedThread() (int64, bool) {
	if s.head.Load() == s.tail.Load() {
		return 0, false
	}

	// Быстрый путь через head.next; если ссылки меняются под нами,
	// идём от хвоста.
	for range 2 {
		h := s.head.Load()
		if h == nil {
			break
		}
		sn := h.next.Load()
		if sn == nil || sn.prev.Load() != s.head.Load() {
			continue
		}
		if w := sn.waiter.Load(); w != nil {
			return w.gid, true
		}
	}

	var (
		gid   int64
		found bool
	)
	h := s.head.Load()
	for t := s.tail.Load(); t != nil && t != h; t = t.prev.Load() {
		if w := t.waiter.Load(); w != nil {
			gid, found = w.gid, true
		}
	}
	return gid, found
}

// IsQueued reports whether the goroutine with id gid is waiting.
func (s *Synchronizer) IsQueued(gid int64) bool {
	for t := s.tail.Load(); t != nil; t = t.prev.Load() {
		if w := t.waiter.Load(); w != nil && w.gid == gid {
			return true
		}
	}
	return false
}

// HasQueuedPredecessors reports whether some other goroutine has been
// waiting longer than the caller. Fair policies call it before acquiring.
func (s *Synchronizer) HasQueuedPredecessors() bool {
	// хвост читаем раньше головы
	t := s.tail.Load()
	h := s.head.Load()
	if h == t {
		return false
	}
	sn := h.next.Load()
	if sn == nil {
		return true
	}
	w := sn.waiter.Load()
	return w == nil || w.gid != goid.Get()
}

// ApparentlyFirstQueuedIsExclusive reports whether the head's successor, if
// any, waits in exclusive mode.
func (s *Synchronizer) ApparentlyFirstQueuedIsExclusive() bool {
	h := s.head.Load()
	if h == nil {
		return false
	}
	sn := h.next.Load()
	return sn != nil && !sn.shared && sn.waiter.Load() != nil
}

// QueueLength estimates the number of waiting goroutines.
func (s *Synchronizer) QueueLength() int {
	n := 0
	for t := s.tail.Load(); t != nil; t = t.prev.Load() {
		if t.waiter.Load() != nil {
			n++
		}
	}
	return n
}

// QueuedThreads returns ids of waiting goroutines, most recent first.
func (s *Synchronizer) QueuedThreads() []int64 {
	return s.collect(func(*node) bool { return true })
}

// ExclusiveQueuedThreads returns ids of goroutines waiting in exclusive mode.
func (s *Synchronizer) ExclusiveQueuedThreads() []int64 {
	return s.collect(func(n *node) bool { return !n.shared })
}

// SharedQueuedThreads returns ids of goroutines waiting in shared mode.
func (s *Synchronizer) SharedQueuedThreads() []int64 {
	return s.collect(func(n *node) bool { return n.shared })
}

func (s *Synchronizer) collect(match func(*node) bool) []int64 {
	var ids []int64
	for t := s.tail.Load(); t != nil; t = t.prev.Load() {
		if !match(t) {
			continue
		}
		if w := t.waiter.Load(); w != nil {
			ids = append(ids, w.gid)
		}
	}
	return ids
}
