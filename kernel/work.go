package kernel

import (
	"sync"
	"sync/atomic"
)

// Work is one deferred call: the stack hands the hot path (an interrupt,
// an RX frame) a Work to submit and the pump runs the handler later from
// the processing flow. Submitting is idempotent while the item is queued.
type Work struct {
	Link
	fn      func(*Work)
	pending atomic.Bool
}

// Init binds the handler and clears any stale queued state. Must be
// called before the first Submit and never while the item is queued.
func (w *Work) Init(fn func(*Work)) {
	w.fn = fn
	w.pending.Store(false)
	w.SetNext(nil)
}

// Submit queues the item on the system work queue. Returns 1 when it was
// queued by this call and 0 when it was already pending.
func (w *Work) Submit() int { return w.SubmitTo(SystemWorkQueue()) }

// SubmitTo queues the item on q with Submit's idempotency contract.
func (w *Work) SubmitTo(q *WorkQueue) int {
	if w.fn == nil {
		check(false, "submit of uninitialized work")
		return 0
	}
	if !w.pending.CompareAndSwap(false, true) {
		return 0
	}
	q.fifo.Put(w)
	workSignal.Give()
	return 1
}

// Pending reports whether the item sits queued awaiting its run.
func (w *Work) Pending() bool { return w.pending.Load() }

// Cancel pulls the item back off whichever queue holds it. Reports whether
// the run was prevented; false means it already ran or was about to.
func (w *Work) Cancel() bool {
	if !w.pending.CompareAndSwap(true, false) {
		return false
	}
	for _, q := range snapshotQueues() {
		if q.fifo.Remove(w) {
			return true
		}
	}
	return false
}

// A WorkQueue drains submitted items in FIFO order. Every queue made by
// NewWorkQueue joins the process-wide pump; the stack's own queues and
// the system queue are all serviced by the same ProcessWork pass, so no
// handler ever runs concurrently with another.
type WorkQueue struct {
	name string
	fifo FIFO
}

// NewWorkQueue creates and registers a named queue.
func NewWorkQueue(name string) *WorkQueue {
	workQueues.mu.Lock()
	defer workQueues.mu.Unlock()
	return newQueueLocked(name)
}

func newQueueLocked(name string) *WorkQueue {
	q := &WorkQueue{name: name}
	q.fifo.Init()
	workQueues.list = append(workQueues.list, q)
	return q
}

func (q *WorkQueue) Name() string { return q.name }

// Pending reports whether anything is queued.
func (q *WorkQueue) Pending() bool { return !q.fifo.IsEmpty() }

// drain runs up to budget items; budget <= 0 means drain everything.
// The pending flag drops before the handler runs so a handler may
// resubmit its own item.
func (q *WorkQueue) drain(budget int) int {
	n := 0
	for budget <= 0 || n < budget {
		e, err := q.fifo.Get(NoWait)
		if err != nil {
			break
		}
		w := e.(*Work)
		w.pending.Store(false)
		w.fn(w)
		n++
	}
	return n
}

var workQueues struct {
	mu     sync.Mutex
	list   []*WorkQueue
	system *WorkQueue
}

// workSignal flags "something was submitted" to the preemptive worker.
// Binary: repeat gives collapse and the worker re-scans every queue.
var workSignal Semaphore

func init() { _ = workSignal.Init(0, 1) }

// SystemWorkQueue returns the queue Submit uses, creating it on first use.
func SystemWorkQueue() *WorkQueue {
	workQueues.mu.Lock()
	defer workQueues.mu.Unlock()
	if workQueues.system == nil {
		workQueues.system = newQueueLocked("sysworkq")
	}
	return workQueues.system
}

func snapshotQueues() []*WorkQueue {
	workQueues.mu.Lock()
	qs := make([]*WorkQueue, len(workQueues.list))
	copy(qs, workQueues.list)
	workQueues.mu.Unlock()
	return qs
}

// ProcessWork pumps every registered queue once, running at most budget
// handlers in total when budget is positive. Returns the number run.
func ProcessWork(budget int) int {
	n := 0
	for _, q := range snapshotQueues() {
		left := 0
		if budget > 0 {
			left = budget - n
			if left <= 0 {
				break
			}
		}
		n += q.drain(left)
	}
	return n
}

// WaitForWork parks until a submit signals, or to expires. The preemptive
// worker loops on this; cooperative builds have no use for it.
func WaitForWork(to Timeout) error { return workSignal.Take(to) }

func resetWork() {
	workQueues.mu.Lock()
	workQueues.list = nil
	workQueues.system = nil
	workQueues.mu.Unlock()
	_ = workSignal.Init(0, 1)
}

// DelayableWork is a Work with a fuse: Schedule arms a one-shot timer
// whose expiry submits the item.
type DelayableWork struct {
	Work
	timer Timer
}

// Init binds the handler. The embedded timer is wired to submit on expiry.
func (d *DelayableWork) Init(fn func(*Work)) {
	d.Work.Init(fn)
	d.timer.Init(func(*Timer) { d.Work.Submit() })
}

// Schedule arms the fuse unless the item is already queued or counting
// down. A NoWait delay submits immediately. Returns 1 when this call
// armed or queued it, 0 when it was already in flight.
func (d *DelayableWork) Schedule(delay Timeout) int {
	if d.Pending() || d.timer.Armed() {
		return 0
	}
	return d.arm(delay)
}

// Reschedule replaces any countdown or queued run with a fresh delay.
func (d *DelayableWork) Reschedule(delay Timeout) int {
	d.timer.Stop()
	d.Work.Cancel()
	return d.arm(delay)
}

func (d *DelayableWork) arm(delay Timeout) int {
	if delay.IsForever() {
		check(false, "schedule with no deadline")
		return 0
	}
	if delay.IsNoWait() {
		return d.Submit()
	}
	d.timer.Start(delay, NoWait)
	return 1
}

// Cancel stops the countdown and unqueues a pending run. Reports whether
// anything was actually called off.
func (d *DelayableWork) Cancel() bool {
	armed := d.timer.Armed()
	d.timer.Stop()
	queued := d.Work.Cancel()
	return armed || queued
}

// Remaining returns the milliseconds left on the fuse, 0 when not armed.
func (d *DelayableWork) Remaining() uint32 { return d.timer.Remaining() }
