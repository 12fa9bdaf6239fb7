//go:build !solution

package queuedsync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// Статусы узла очереди.
const (
	statusInitial   int32 = 0
	statusCancelled int32 = 1
	statusSignal    int32 = -1
	statusCondition int32 = -2
	statusPropagate int32 = -3
)

// parker is the park/unpark boundary between the queue and the Go scheduler.
// The channel holds at most one pending permit.
type parker struct {
	gid  int64
	wake chan struct{}
}

func newParker() *parker {
	return &parker{
		gid:  goid.Get(),
		wake: make(chan struct{}, 1),
	}
}

func (p *parker) unpark() {
	select {
	case p.wake <- struct{}{}:
	default:
		// разрешение уже выдано
	}
}

// park blocks until unpark, ctx cancellation or timeout. Spurious returns are
// allowed: every caller re-checks its condition in a loop.
func (p *parker) park(ctx context.Context, timeout <-chan time.Time) {
	select {
	case <-p.wake:
	case <-ctx.Done():
	case <-timeout:
	}
}

type node struct {
	status atomic.Int32
	prev   atomic.Pointer[node]
	next   atomic.Pointer[node]

	// waiter is cleared once the goroutine stops waiting on this node.
	waiter atomic.Pointer[parker]
	// own is the parker the creating goroutine blocks on.
	own    *parker
	shared bool

	// nextWaiter links condition nodes. Only touched by the exclusive holder.
	nextWaiter *node
}

func newNode(shared bool) *node {
	p := newParker()
	n := &node{own: p, shared: shared}
	n.waiter.Store(p)
	return n
}

func (n *node) mode() string {
	if n.shared {
		return modeShared
	}
	return modeExclusive
}
