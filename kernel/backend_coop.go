//go:build !bleport_thread

package kernel

// ThreadBackend reports whether the preemptive backend is compiled in.
const ThreadBackend = false

// curFlow identifies the calling flow for mutex ownership. The cooperative
// build has exactly one flow allowed to call blocking entry points, so the
// identity is constant: a lock attempt is either a fresh acquire or a
// recursive one, never contention.
func curFlow() int64 { return 1 }

// waitq is the rendezvous blocked flows park on. The cooperative build
// never parks; a wait that cannot be satisfied immediately reports failure
// and the embedding poll loop retries on its next pass.
type waitq struct{}

func (w *waitq) init() {}

// wait reports whether the waiter was woken. Cooperatively it never was.
func (w *waitq) wait(*lock, Timeout) bool { return false }

func (w *waitq) wake(n int) int { return 0 }

func (w *waitq) waiters() int { return 0 }
