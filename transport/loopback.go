package transport

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/smallnest/ringbuffer"
)

// Loopback is one end of an in-process transport pipe. Frames written
// here surface on the peer's read side. Reads never block: an empty
// buffer reads as zero bytes, and the notify callback tells the embedder
// when trying again is worthwhile.
type Loopback struct {
	name string
	rx   *ringbuffer.RingBuffer
	tx   *ringbuffer.RingBuffer
	peer *Loopback

	notify notifier
	rmu    sync.Mutex
	wmu    sync.Mutex
	closed atomic.Bool
}

// NewLoopback returns the two ends of a fresh pipe.
func NewLoopback() (*Loopback, *Loopback) {
	ab := ringbuffer.New(ringSize)
	ba := ringbuffer.New(ringSize)

	a := &Loopback{name: "loop0", rx: ba, tx: ab}
	b := &Loopback{name: "loop1", rx: ab, tx: ba}
	a.peer, b.peer = b, a
	return a, b
}

// OnData installs fn to run after every write that lands data on this
// end's read side. nil clears it. fn must be poll-safe: typically it
// just pends an interrupt source.
func (l *Loopback) OnData(fn func()) { l.notify.set(fn) }

// Read drains buffered bytes without blocking. An open, empty transport
// reads as (0, nil); wait for the notify callback rather than spinning.
func (l *Loopback) Read(p []byte) (int, error) {
	if l.closed.Load() {
		return 0, io.EOF
	}
	l.rmu.Lock()
	defer l.rmu.Unlock()

	n, err := l.rx.TryRead(p)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return n, errors.Wrap(err, "loopback read")
	}
	return n, nil
}

// Write queues p for the peer and fires its notify callback. A full
// buffer fails with the byte count that did land.
func (l *Loopback) Write(p []byte) (int, error) {
	if l.closed.Load() || l.peer.closed.Load() {
		return 0, io.EOF
	}
	l.wmu.Lock()
	n, err := l.tx.Write(p)
	l.wmu.Unlock()
	if err != nil {
		return n, errors.Wrap(err, "loopback write")
	}

	if n > 0 {
		l.peer.notify.fire()
	}
	return n, nil
}

// Close shuts this end down. Both ends stop accepting writes; reads on
// the peer drain what is already buffered and then hit EOF via its own
// Close.
func (l *Loopback) Close() error {
	l.closed.Store(true)
	return nil
}

func (l *Loopback) String() string { return l.name }
