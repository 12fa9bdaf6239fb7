//go:build !solution

package queuedsync

import "errors"

var (
	// ErrNotHeld is returned by release hooks when the calling goroutine does
	// not hold the synchronizer.
	ErrNotHeld = errors.New("queuedsync: not held by current goroutine")

	// ErrIllegalMonitorState is returned by condition operations invoked
	// without holding the owning synchronizer exclusively.
	ErrIllegalMonitorState = errors.New("queuedsync: synchronizer not held exclusively")

	// ErrCountOverflow is the panic value used when a hold or permit count
	// would wrap around.
	ErrCountOverflow = errors.New("queuedsync: count overflow")

	// ErrNegativeArg is returned when a count argument is negative.
	ErrNegativeArg = errors.New("queuedsync: negative argument")

	// ErrUnsupported is the panic value of hooks a policy does not implement.
	ErrUnsupported = errors.New("queuedsync: operation not supported")
)
