// Package transport provides the controller transport handles the
// pseudo device table binds: an in-process loopback for tests and
// diagnostics, and a UART for a real controller on linux hosts. Reads
// are non-blocking to fit the cooperative poll loop; data arrival is
// signalled through an optional notify callback so an embedder can pend
// an interrupt source instead of spinning.
package transport

import "sync"

// ringSize is each direction's buffer capacity, enough for several
// maximum-size packets between poll passes.
const ringSize = 4096

// DefaultBaudRate is the controller UART rate when none is configured.
const DefaultBaudRate = 115200

// UARTConfig selects the serial device a UART transport opens.
type UARTConfig struct {
	Device string
	Baud   uint
}

// notifier holds the data-arrival callback shared by the transports.
type notifier struct {
	mu sync.Mutex
	fn func()
}

// set installs fn as the arrival callback; nil clears it.
func (n *notifier) set(fn func()) {
	n.mu.Lock()
	n.fn = fn
	n.mu.Unlock()
}

func (n *notifier) fire() {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}
