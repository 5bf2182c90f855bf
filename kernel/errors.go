package kernel

import "github.com/pkg/errors"

// Sentinel errors for the kernel primitives. Callers branch on these the
// way the stack branches on the RTOS error codes they stand in for.
var (
	// ErrInvalid reports use of an object that was never initialized or
	// arguments that cannot describe a valid object.
	ErrInvalid = errors.New("kernel: invalid or uninitialized object")

	// ErrBusy reports a no-wait acquire that could not be satisfied.
	ErrBusy = errors.New("kernel: busy")

	// ErrTimedOut reports a wait that expired before it was satisfied.
	ErrTimedOut = errors.New("kernel: timed out")

	// ErrExhausted reports an empty memory slab.
	ErrExhausted = errors.New("kernel: out of blocks")

	// ErrEmpty reports a queue with nothing to take.
	ErrEmpty = errors.New("kernel: queue empty")

	// ErrNotOwner reports an unlock of a mutex the caller does not hold.
	ErrNotOwner = errors.New("kernel: not owner")
)
