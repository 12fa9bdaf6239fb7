package queuedsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testMutex: простейший нереентерабельный мьютекс поверх ядра.
type testMutex struct{ ExclusiveOnly }

func (testMutex) TryAcquire(s *Synchronizer, _ int64) bool {
	if s.CompareAndSetState(0, 1) {
		s.SetExclusiveOwner(GoroutineID())
		return true
	}
	return false
}

func (testMutex) TryRelease(s *Synchronizer, _ int64) (bool, error) {
	if s.State() == 0 || s.ExclusiveOwner() != GoroutineID() {
		return false, ErrNotHeld
	}
	s.SetExclusiveOwner(0)
	s.SetState(0)
	return true, nil
}

func (testMutex) IsHeldExclusively(s *Synchronizer) bool {
	return s.State() != 0 && s.ExclusiveOwner() == GoroutineID()
}

// testGate is a one-shot shared gate: closed at 0, open at 1.
type testGate struct{ SharedOnly }

func (testGate) TryAcquireShared(s *Synchronizer, _ int64) int64 {
	if s.State() != 0 {
		return 1
	}
	return -1
}

func (testGate) TryReleaseShared(s *Synchronizer, _ int64) (bool, error) {
	s.CompareAndSetState(0, 1)
	return true, nil
}

func waitQueued(t *testing.T, s *Synchronizer, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.QueueLength() == n
	}, 5*time.Second, time.Millisecond, "expected %d queued goroutines", n)
}

func mustRelease(t *testing.T, s *Synchronizer) {
	t.Helper()
	free, err := s.Release(1)
	require.NoError(t, err)
	require.True(t, free)
}
