package kernel

import (
	"runtime"
	"sync/atomic"
	"time"
)

// clockBase anchors the monotonic wall source. Read-only after load.
var clockBase = time.Now()

var (
	epochMs      atomic.Int64 // uptime zero point, ms since clockBase
	useAnnounced atomic.Bool
	announcedMs  atomic.Int64
)

func wallMs() int64 { return time.Since(clockBase).Milliseconds() }

func resetClock() {
	epochMs.Store(wallMs())
	announcedMs.Store(0)
	useAnnounced.Store(false)
}

// SetAnnouncedClock switches the tick source. With the announced source,
// uptime advances only through AnnounceTick and the embedder owns time
// entirely; with it off, uptime follows the monotonic wall clock. Switch
// before any timed object is armed.
func SetAnnouncedClock(on bool) {
	useAnnounced.Store(on)
}

// AnnounceTick advances the announced tick source by n ticks. A hardware
// timer interrupt is the intended caller.
func AnnounceTick(n uint32) {
	announcedMs.Add(int64(n))
}

// Uptime returns milliseconds since Reset on the selected tick source.
func Uptime() int64 {
	if useAnnounced.Load() {
		return announcedMs.Load()
	}
	return wallMs() - epochMs.Load()
}

// Uptime32 is Uptime truncated to 32 bits, for call sites that carry the
// stack's narrow tick counters.
func Uptime32() uint32 { return uint32(Uptime()) }

// Sleep pauses the calling flow. NoWait degrades to Yield. Sleep always
// follows wall time; under the announced source there is no flow left to
// advance ticks while the only flow sleeps.
func Sleep(to Timeout) {
	if to.IsNoWait() {
		Yield()
		return
	}
	if to.IsForever() {
		check(false, "sleep forever with no wakeup source")
		return
	}
	time.Sleep(to.AsDuration())
}

// Yield gives other runnable flows a chance to run.
func Yield() { runtime.Gosched() }

// BusyWait spins for usec microseconds without yielding.
func BusyWait(usec uint32) {
	end := time.Now().Add(time.Duration(usec) * time.Microsecond)
	for time.Now().Before(end) {
	}
}
