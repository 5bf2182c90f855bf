// Package kernel emulates the small slice of a preemptive RTOS kernel API
// that a vendored BLE host stack expects: recursive mutexes, counting
// semaphores, condition variables, intrusive FIFO/LIFO queues, fixed-block
// memory slabs, work queues and timers, all driven by a millisecond tick.
//
// Two backends share the one API. The default cooperative backend never
// parks a caller: an acquire that cannot be satisfied immediately fails
// with a distinct error and the embedding poll loop retries. Building with
// the bleport_thread tag swaps in a preemptive backend where waits really
// block, with real deadlines.
package kernel

import (
	"sync"

	"github.com/rigado/bleport"
)

// lock is the short critical section guarding kernel object state, the
// analog of masking interrupts around a handful of loads and stores. It is
// never held across a handler or a park.
type lock struct {
	mu sync.Mutex
}

func (l *lock) acquire() { l.mu.Lock() }
func (l *lock) release() { l.mu.Unlock() }

var (
	loggerOnce sync.Once
	logger     bleport.Logger
)

func log() bleport.Logger {
	loggerOnce.Do(func() {
		logger = bleport.GetLogger().ChildLogger(map[string]interface{}{"pkg": "kernel"})
	})
	return logger
}

// Reset tears down process-wide kernel state: work queues, timers and the
// clock epoch. The port runtime calls it on Init and Shutdown; nothing may
// hold kernel objects across it.
func Reset() {
	resetWork()
	resetTimers()
	resetClock()
}
