package irq

import (
	"sort"
	"sync/atomic"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
)

// pendRingSize bounds how many sources can sit pended between poll
// passes. The ring overlaps: when producers outrun the drain the oldest
// entries are overwritten, and each overwrite is a lost interrupt.
const pendRingSize = 64

var pending struct {
	ring mpmc.RichOverlappedRingBuffer[int]
	lost atomic.Uint64
}

func init() {
	pending.ring = mpmc.NewOverlappedRingBuffer[int](pendRingSize)
}

// Pend queues src for the next DispatchPending pass. This is the one
// entry point an interrupt-like goroutine may use; it never blocks and
// never runs a handler itself.
func Pend(src int) {
	over, err := pending.ring.EnqueueM(src)
	if err != nil {
		log().Errorf("pend %d: %v", src, err)
		return
	}
	if over > 0 {
		pending.lost.Add(uint64(over))
	}
}

// DispatchPending drains everything pended so far and dispatches it,
// lowest priority value first. Sources of equal priority keep their pend
// order. Returns the number of sources dispatched.
func DispatchPending() int {
	var batch []int
	for !pending.ring.IsEmpty() {
		src, err := pending.ring.Dequeue()
		if err != nil {
			break
		}
		batch = append(batch, src)
	}
	if len(batch) == 0 {
		return 0
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return Priority(batch[i]) < Priority(batch[j])
	})
	for _, src := range batch {
		Dispatch(src)
	}
	return len(batch)
}

func lostCount() uint64 { return pending.lost.Load() }

func resetPending() {
	for !pending.ring.IsEmpty() {
		if _, err := pending.ring.Dequeue(); err != nil {
			break
		}
	}
	pending.lost.Store(0)
}
