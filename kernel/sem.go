package kernel

// A Semaphore counts available resources between a producer and a
// consumer, typically controller buffer credits. Give saturates at the
// limit rather than failing, matching the RTOS semantics the stack
// assumes when it returns credits it did not take.
type Semaphore struct {
	l           lock
	w           waitq
	initialized bool
	count       uint32
	limit       uint32
}

// Init sets the starting count and the saturation limit. A zero limit or
// a count above it cannot describe a semaphore and returns ErrInvalid.
func (s *Semaphore) Init(initial, limit uint32) error {
	if limit == 0 || initial > limit {
		return ErrInvalid
	}
	s.l.acquire()
	s.initialized = true
	s.count = initial
	s.limit = limit
	s.w.init()
	s.l.release()
	return nil
}

// Take consumes one count, waiting at most to. On a zero count a no-wait
// attempt returns ErrBusy; an expired wait returns ErrTimedOut. The
// cooperative backend cannot wait, so any timed Take on a zero count
// expires immediately.
func (s *Semaphore) Take(to Timeout) error {
	s.l.acquire()
	defer s.l.release()

	if !s.initialized {
		return ErrInvalid
	}
	for s.count == 0 {
		if !s.w.wait(&s.l, to) {
			if to.IsNoWait() {
				return ErrBusy
			}
			return ErrTimedOut
		}
	}
	s.count--
	return nil
}

// Give returns one count, waking a waiter if any. Counts beyond the limit
// are dropped silently.
func (s *Semaphore) Give() {
	s.l.acquire()
	defer s.l.release()

	if !s.initialized {
		check(false, "give on uninitialized semaphore")
		return
	}
	if s.count < s.limit {
		s.count++
	}
	s.w.wake(1)
}

// Count returns the current count.
func (s *Semaphore) Count() uint32 {
	s.l.acquire()
	defer s.l.release()
	return s.count
}

// Reset drops the count to zero. Parked takers are not disturbed; they
// will see whatever is given next.
func (s *Semaphore) Reset() {
	s.l.acquire()
	s.count = 0
	s.l.release()
}
