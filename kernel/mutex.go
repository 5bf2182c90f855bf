package kernel

// A Mutex is the recursive lock the stack serializes its state machine
// with. The holder may re-lock; each Lock pairs with one Unlock and the
// lock is released when the count returns to zero.
//
// Cooperatively a Lock can never contend: the single flow either holds the
// mutex already (a recursive acquire) or it is free. The preemptive
// backend arbitrates between goroutines for real.
type Mutex struct {
	l           lock
	w           waitq
	initialized bool
	owner       int64
	count       uint32
}

// Init readies the mutex. A Mutex must be initialized before any other
// call; the zero value is deliberately rejected so that a lock that was
// never set up surfaces as an error instead of as silent misordering.
func (m *Mutex) Init() {
	m.l.acquire()
	m.initialized = true
	m.owner = 0
	m.count = 0
	m.w.init()
	m.l.release()
}

// Lock acquires the mutex, waiting at most to. Recursive acquires by the
// holder always succeed. A contended no-wait attempt returns ErrBusy and
// an expired wait ErrTimedOut.
func (m *Mutex) Lock(to Timeout) error {
	flow := curFlow()

	m.l.acquire()
	defer m.l.release()

	if !m.initialized {
		return ErrInvalid
	}
	if m.owner == flow {
		m.count++
		return nil
	}
	for m.owner != 0 {
		if !m.w.wait(&m.l, to) {
			if to.IsNoWait() {
				return ErrBusy
			}
			return ErrTimedOut
		}
	}
	m.owner = flow
	m.count = 1
	return nil
}

// Unlock releases one level of hold. Unlocking a mutex the caller does not
// hold is a contract violation: the count is clamped, ErrNotOwner comes
// back and nothing else changes.
func (m *Mutex) Unlock() error {
	m.l.acquire()
	defer m.l.release()

	if !m.initialized {
		return ErrInvalid
	}
	if m.count == 0 || m.owner != curFlow() {
		check(false, "unlock of mutex not held (count=%d)", m.count)
		return ErrNotOwner
	}
	m.count--
	if m.count == 0 {
		m.owner = 0
		m.w.wake(1)
	}
	return nil
}

// HoldCount returns the current recursion depth.
func (m *Mutex) HoldCount() uint32 {
	m.l.acquire()
	defer m.l.release()
	return m.count
}

// releaseAll drops the full recursion depth in one step for a condition
// wait, returning the depth to restore on wake.
func (m *Mutex) releaseAll() (uint32, error) {
	m.l.acquire()
	defer m.l.release()

	if !m.initialized {
		return 0, ErrInvalid
	}
	if m.count == 0 || m.owner != curFlow() {
		return 0, ErrNotOwner
	}
	depth := m.count
	m.count = 0
	m.owner = 0
	m.w.wake(1)
	return depth, nil
}

// reacquire takes the mutex back after a condition wait and restores the
// saved recursion depth.
func (m *Mutex) reacquire(depth uint32) {
	_ = m.Lock(Forever)
	m.l.acquire()
	m.count = depth
	m.l.release()
}
