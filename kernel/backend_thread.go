//go:build bleport_thread

package kernel

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// ThreadBackend reports whether the preemptive backend is compiled in.
const ThreadBackend = true

// curFlow identifies the calling flow for mutex ownership: the goroutine
// id, parsed from the stack header. Costs one small runtime.Stack call per
// lock attempt, which the locking rate of a host stack tolerates easily.
func curFlow() int64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type waiter struct {
	ch chan struct{}
}

// waitq parks flows until woken or timed out. All state is guarded by the
// lock passed to wait, which is released while parked and re-acquired
// before returning.
type waitq struct {
	ws []*waiter
}

func (w *waitq) init() { w.ws = nil }

// wait parks the caller. Reports whether it was woken rather than expired.
func (w *waitq) wait(l *lock, to Timeout) bool {
	if to.IsNoWait() {
		return false
	}

	wt := &waiter{ch: make(chan struct{})}
	w.ws = append(w.ws, wt)
	l.release()

	woken := false
	if to.IsForever() {
		<-wt.ch
		woken = true
	} else {
		t := time.NewTimer(to.AsDuration())
		select {
		case <-wt.ch:
			woken = true
		case <-t.C:
		}
		t.Stop()
	}

	l.acquire()
	if !woken {
		// The timer fired, but a racing wake may still have claimed this
		// waiter before the lock was re-taken. Consume the signal so wake
		// counts stay exact for the next waiter.
		select {
		case <-wt.ch:
			woken = true
		default:
			w.remove(wt)
		}
	}
	return woken
}

// wake releases up to n parked flows, oldest first. Caller holds the
// object lock. Returns the number actually woken.
func (w *waitq) wake(n int) int {
	woken := 0
	for woken < n && len(w.ws) > 0 {
		wt := w.ws[0]
		w.ws = w.ws[1:]
		close(wt.ch)
		woken++
	}
	return woken
}

func (w *waitq) remove(wt *waiter) {
	for i, x := range w.ws {
		if x == wt {
			w.ws = append(w.ws[:i], w.ws[i+1:]...)
			return
		}
	}
}

func (w *waitq) waiters() int { return len(w.ws) }
