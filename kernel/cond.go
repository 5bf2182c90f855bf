package kernel

// A Condvar lets a flow wait for a state change announced by another. The
// cooperative backend has no other flow to announce anything, so Wait
// reports an immediate timeout and the caller rechecks its predicate from
// the poll loop; Signal and Broadcast find nobody to wake.
type Condvar struct {
	l           lock
	w           waitq
	initialized bool
}

func (c *Condvar) Init() {
	c.l.acquire()
	c.initialized = true
	c.w.init()
	c.l.release()
}

// Wait atomically releases m, parks until signalled or to expires, then
// re-acquires m before returning. m must be held by the caller; a
// recursive hold is released in full and the depth restored on return.
// Returns ErrTimedOut when the wait expired, ErrNotOwner when m was not
// held.
func (c *Condvar) Wait(m *Mutex, to Timeout) error {
	c.l.acquire()
	if !c.initialized {
		c.l.release()
		return ErrInvalid
	}

	depth, err := m.releaseAll()
	if err != nil {
		c.l.release()
		return err
	}

	woken := c.w.wait(&c.l, to)
	c.l.release()

	m.reacquire(depth)
	if !woken {
		return ErrTimedOut
	}
	return nil
}

// Signal wakes one waiter. Returns the number woken.
func (c *Condvar) Signal() int {
	c.l.acquire()
	defer c.l.release()
	if !c.initialized {
		return 0
	}
	return c.w.wake(1)
}

// Broadcast wakes every waiter. Returns the number woken.
func (c *Condvar) Broadcast() int {
	c.l.acquire()
	defer c.l.release()
	if !c.initialized {
		return 0
	}
	return c.w.wake(int(^uint(0) >> 1))
}
