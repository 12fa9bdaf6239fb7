//go:build !solution

package queuedsync

//go:generate mockgen -source=policy.go -destination=mock_policy_test.go -package=queuedsync Policy

// Policy supplies the state semantics of a concrete synchronization tool.
//
// Hooks must not block and must be safe to call repeatedly: the synchronizer
// retries them after every wakeup. Hooks may read and write the state only
// through [Synchronizer.State], [Synchronizer.SetState] and
// [Synchronizer.CompareAndSetState]. SetState is reserved for the goroutine
// that currently holds the synchronizer exclusively.
type Policy interface {
	// TryAcquire attempts to acquire in exclusive mode.
	TryAcquire(s *Synchronizer, arg int64) bool
	// TryRelease reports whether the synchronizer became fully free.
	// It returns an error wrapping ErrNotHeld if the caller is not the holder.
	TryRelease(s *Synchronizer, arg int64) (bool, error)
	// TryAcquireShared returns a negative value on failure, zero if the
	// acquisition succeeded but no further shared acquire can succeed, and a
	// positive value if subsequent shared waiters may succeed too.
	TryAcquireShared(s *Synchronizer, arg int64) int64
	// TryReleaseShared reports whether waiting acquirers may now succeed.
	TryReleaseShared(s *Synchronizer, arg int64) (bool, error)
	// IsHeldExclusively is consulted by condition operations only.
	IsHeldExclusively(s *Synchronizer) bool
}

// ExclusiveOnly can be embedded by policies without a shared mode.
type ExclusiveOnly struct{}

func (ExclusiveOnly) TryAcquireShared(*Synchronizer, int64) int64 {
	panic(ErrUnsupported)
}

func (ExclusiveOnly) TryReleaseShared(*Synchronizer, int64) (bool, error) {
	panic(ErrUnsupported)
}

// SharedOnly can be embedded by policies without an exclusive mode.
// Such policies cannot be used with conditions.
type SharedOnly struct{}

func (SharedOnly) TryAcquire(*Synchronizer, int64) bool {
	panic(ErrUnsupported)
}

func (SharedOnly) TryRelease(*Synchronizer, int64) (bool, error) {
	panic(ErrUnsupported)
}

func (SharedOnly) IsHeldExclusively(*Synchronizer) bool {
	panic(ErrUnsupported)
}
