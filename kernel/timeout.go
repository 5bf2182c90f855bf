package kernel

import (
	"fmt"
	"time"
)

// One tick is one millisecond. Every timed operation in the package is
// quantized to ticks, matching the RTOS API the stack was written against.
const TicksPerSec = 1000

const foreverTicks = ^uint32(0)

// maximum finite tick count; one below the forever sentinel
const maxTicks = foreverTicks - 1

// A Timeout bounds a wait. It is a tagged value: the zero Timeout is
// NoWait (fail immediately rather than wait at all), Forever never
// expires, and anything else is a finite tick count. NoWait is distinct
// from a short timeout and never rounds up to one.
type Timeout struct {
	ticks uint32
}

var (
	// NoWait makes the operation fail rather than wait.
	NoWait = Timeout{}

	// Forever waits with no deadline.
	Forever = Timeout{ticks: foreverTicks}
)

// Ticks builds a Timeout from a raw tick count. The all-ones count is the
// forever sentinel, as on the wire.
func Ticks(n uint32) Timeout { return Timeout{ticks: n} }

// Msec builds a finite Timeout of ms milliseconds.
func Msec(ms uint32) Timeout { return Timeout{ticks: ms} }

// Seconds builds a finite Timeout of s seconds.
func Seconds(s uint32) Timeout { return Timeout{ticks: s * TicksPerSec} }

// Duration quantizes d to ticks. Zero and negative durations are NoWait;
// any positive duration shorter than a tick rounds up to exactly one so a
// real wait is never silently turned into a no-wait.
func Duration(d time.Duration) Timeout {
	if d <= 0 {
		return NoWait
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > time.Duration(maxTicks) {
		ms = time.Duration(maxTicks)
	}
	return Timeout{ticks: uint32(ms)}
}

func (t Timeout) IsNoWait() bool  { return t.ticks == 0 }
func (t Timeout) IsForever() bool { return t.ticks == foreverTicks }

// Millis returns the finite tick count. The forever sentinel value is
// returned as-is; callers test IsForever first.
func (t Timeout) Millis() uint32 { return t.ticks }

// AsDuration converts a finite Timeout to a time.Duration.
func (t Timeout) AsDuration() time.Duration {
	return time.Duration(t.ticks) * time.Millisecond
}

func (t Timeout) String() string {
	switch {
	case t.IsNoWait():
		return "no-wait"
	case t.IsForever():
		return "forever"
	default:
		return fmt.Sprintf("%dms", t.ticks)
	}
}
