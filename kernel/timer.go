package kernel

import "sync"

// A Timer calls its expiry function when the selected tick source passes
// its deadline. Expiry runs from the timer pump (ProcessTimers), never
// from an interrupt, so expiry functions may start and stop timers freely.
type Timer struct {
	fn       func(*Timer)
	deadline int64 // uptime ms when due
	period   uint32
	armed    bool
}

var timerReg struct {
	mu   sync.Mutex
	list []*Timer
}

// Init binds the expiry function. Must precede Start.
func (t *Timer) Init(fn func(*Timer)) {
	timerReg.mu.Lock()
	t.fn = fn
	t.armed = false
	timerReg.mu.Unlock()
}

// Start arms the timer to fire after duration, then every period if
// period is finite and nonzero. A NoWait duration fires on the next pump
// pass; a Forever duration never fires and just leaves the timer stopped.
func (t *Timer) Start(duration, period Timeout) {
	timerReg.mu.Lock()
	defer timerReg.mu.Unlock()

	if t.fn == nil {
		check(false, "start of uninitialized timer")
		return
	}
	if duration.IsForever() {
		t.armed = false
		return
	}

	t.deadline = Uptime() + int64(duration.Millis())
	if period.IsNoWait() || period.IsForever() {
		t.period = 0
	} else {
		t.period = period.Millis()
	}
	t.armed = true

	for _, r := range timerReg.list {
		if r == t {
			return
		}
	}
	timerReg.list = append(timerReg.list, t)
}

// Stop disarms the timer. A later Start re-arms it.
func (t *Timer) Stop() {
	timerReg.mu.Lock()
	t.armed = false
	timerReg.mu.Unlock()
}

// Armed reports whether the timer is counting down.
func (t *Timer) Armed() bool {
	timerReg.mu.Lock()
	defer timerReg.mu.Unlock()
	return t.armed
}

// Remaining returns milliseconds until expiry, 0 when disarmed or due.
func (t *Timer) Remaining() uint32 {
	timerReg.mu.Lock()
	defer timerReg.mu.Unlock()
	if !t.armed {
		return 0
	}
	left := t.deadline - Uptime()
	if left <= 0 {
		return 0
	}
	return uint32(left)
}

// ProcessTimers fires every due timer once against the current uptime and
// re-arms periodic ones. Periods missed during a stall collapse into a
// single fire. Returns the number fired.
func ProcessTimers() int {
	now := Uptime()

	timerReg.mu.Lock()
	var due []*Timer
	for _, t := range timerReg.list {
		if !t.armed || t.deadline > now {
			continue
		}
		if t.period > 0 {
			t.deadline += int64(t.period)
			if t.deadline <= now {
				t.deadline = now + int64(t.period)
			}
		} else {
			t.armed = false
		}
		due = append(due, t)
	}
	timerReg.mu.Unlock()

	// Expiry runs outside the registry lock.
	for _, t := range due {
		t.fn(t)
	}
	return len(due)
}

// NextTimerDeadline returns the soonest armed deadline in uptime ms. The
// preemptive worker sizes its waits with it.
func NextTimerDeadline() (int64, bool) {
	timerReg.mu.Lock()
	defer timerReg.mu.Unlock()

	var best int64
	found := false
	for _, t := range timerReg.list {
		if t.armed && (!found || t.deadline < best) {
			best = t.deadline
			found = true
		}
	}
	return best, found
}

func resetTimers() {
	timerReg.mu.Lock()
	timerReg.list = nil
	timerReg.mu.Unlock()
}
