// Package irq is a runtime-populated stand-in for the generated vector
// table a controller firmware build normally carries. The embedding host
// connects handlers by source id, and either dispatches a source inline
// or pends it for the next poll pass. Unknown sources are counted, never
// fatal.
package irq

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/rigado/bleport"
)

// TableSize bounds the source id space. The nRF52840 family tops out at
// SPIM3 (47), so 48 slots cover every peripheral the controller wires up.
const TableSize = 48

// FlagDirect marks a handler connected on the direct path. On real
// hardware a direct handler skips the argument-passing wrapper; here the
// flag is recorded so diagnostics can tell the two kinds apart.
const FlagDirect uint32 = 0x1

// ErrBadSource rejects a source id outside the table.
var ErrBadSource = errors.New("irq: source out of range")

// Handler runs when its source is dispatched.
type Handler func(arg interface{})

type entry struct {
	handler  Handler
	arg      interface{}
	priority uint8
	direct   bool
	enabled  bool
}

// Stats is a snapshot of the dispatch counters.
type Stats struct {
	Dispatched    uint64 // every Dispatch call, handled or not
	Unhandled     uint64 // dispatches that found no enabled handler
	Lost          uint64 // pended sources overwritten before draining
	UnhandledMask uint64 // one bit per source ever seen unhandled
}

var tbl struct {
	mu      sync.Mutex // guards entries
	run     sync.Mutex // serializes handler execution
	entries [TableSize]entry

	dispatched atomic.Uint64
	unhandled  atomic.Uint64
	mask       atomic.Uint64
}

var (
	loggerOnce sync.Once
	logger     bleport.Logger
)

func log() bleport.Logger {
	loggerOnce.Do(func() {
		logger = bleport.GetLogger().ChildLogger(map[string]interface{}{"pkg": "irq"})
	})
	return logger
}

// Connect registers handler for src at the given priority, replacing any
// earlier registration. Bit 0 of flags selects the direct path. An
// out-of-range id fails without touching the table, and connecting does
// not change the source's enable state.
func Connect(src int, priority uint8, handler Handler, arg interface{}, flags uint32) error {
	if src < 0 || src >= TableSize {
		return errors.Wrapf(ErrBadSource, "connect %d", src)
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	e := &tbl.entries[src]
	e.handler = handler
	e.arg = arg
	e.priority = priority
	e.direct = flags&FlagDirect != 0
	return nil
}

// Enable lets src dispatch. Out-of-range ids are ignored.
func Enable(src int) {
	if src < 0 || src >= TableSize {
		return
	}
	tbl.mu.Lock()
	tbl.entries[src].enabled = true
	tbl.mu.Unlock()
}

// Disable gates src off. Pending dispatches of src land in the unhandled
// counter instead of the handler.
func Disable(src int) {
	if src < 0 || src >= TableSize {
		return
	}
	tbl.mu.Lock()
	tbl.entries[src].enabled = false
	tbl.mu.Unlock()
}

// IsEnabled reports whether src currently dispatches to its handler.
func IsEnabled(src int) bool {
	if src < 0 || src >= TableSize {
		return false
	}
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return tbl.entries[src].enabled
}

// Priority returns the priority src was connected with, or 0xff when the
// id is out of range.
func Priority(src int) uint8 {
	if src < 0 || src >= TableSize {
		return 0xff
	}
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return tbl.entries[src].priority
}

// Dispatch runs the handler registered for src. Every call is counted.
// A source with no enabled handler only bumps the unhandled counter and
// the seen-mask; the table itself is left untouched. Handlers run one at
// a time: each finishes before the next source or the poll flow proceeds.
// Reports whether a handler ran.
func Dispatch(src int) bool {
	tbl.dispatched.Add(1)

	var e entry
	if src >= 0 && src < TableSize {
		tbl.mu.Lock()
		e = tbl.entries[src]
		tbl.mu.Unlock()
	}
	if e.handler == nil || !e.enabled {
		markUnhandled(src)
		return false
	}

	tbl.run.Lock()
	defer tbl.run.Unlock()
	e.handler(e.arg)
	return true
}

func markUnhandled(src int) {
	tbl.unhandled.Add(1)
	if src < 0 || src >= 64 {
		log().Warnf("unhandled source %d out of table range", src)
		return
	}

	bit := uint64(1) << uint(src)
	for {
		old := tbl.mask.Load()
		if old&bit != 0 {
			return
		}
		if tbl.mask.CompareAndSwap(old, old|bit) {
			// First sighting of this source; later ones stay silent.
			log().Warnf("unhandled source %d", src)
			return
		}
	}
}

// GetStats snapshots the dispatch counters.
func GetStats() Stats {
	return Stats{
		Dispatched:    tbl.dispatched.Load(),
		Unhandled:     tbl.unhandled.Load(),
		Lost:          lostCount(),
		UnhandledMask: tbl.mask.Load(),
	}
}

// Reset clears the table, the counters and anything still pended. The
// port runtime calls it during Init, before any source can be connected.
func Reset() {
	tbl.mu.Lock()
	for i := range tbl.entries {
		tbl.entries[i] = entry{}
	}
	tbl.mu.Unlock()

	tbl.dispatched.Store(0)
	tbl.unhandled.Store(0)
	tbl.mask.Store(0)
	resetPending()
}
