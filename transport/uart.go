//go:build linux

package transport

import (
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"github.com/smallnest/ringbuffer"

	"github.com/rigado/bleport"
)

// UART carries frames over a serial-attached controller. A pump
// goroutine moves bytes from the port into the read buffer and fires
// the notify callback, so the poll flow reads without blocking, same
// contract as the loopback.
type UART struct {
	name string
	sp   io.ReadWriteCloser
	rx   *ringbuffer.RingBuffer

	notify notifier
	rmu    sync.Mutex
	wmu    sync.Mutex

	done chan struct{}
	cmu  sync.Mutex
}

// NewUART opens the configured device at 8N1 and drains whatever the
// controller had buffered, so the stack starts from a clean line.
func NewUART(cfg UARTConfig) (*UART, error) {
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaudRate
	}

	opts := serial.OpenOptions{
		PortName:              cfg.Device,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}

	sp, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Device)
	}

	// Poke the controller and discard stale bytes before handing the
	// line over.
	if _, err := sp.Write([]byte{1, 3, 12, 0}); err != nil {
		sp.Close()
		return nil, errors.Wrap(err, "flush write")
	}
	<-time.After(250 * time.Millisecond)
	if _, err := sp.Read(make([]byte, 2048)); err != nil {
		sp.Close()
		return nil, errors.Wrap(err, "flush read")
	}

	u := &UART{
		name: cfg.Device,
		sp:   sp,
		rx:   ringbuffer.New(ringSize),
		done: make(chan struct{}),
	}
	go u.rxLoop()
	return u, nil
}

// OnData installs fn to run when the pump lands new bytes. nil clears
// it.
func (u *UART) OnData(fn func()) { u.notify.set(fn) }

// Read drains buffered bytes without blocking; empty reads as (0, nil).
func (u *UART) Read(p []byte) (int, error) {
	if !u.isOpen() {
		return 0, io.EOF
	}
	u.rmu.Lock()
	defer u.rmu.Unlock()

	n, err := u.rx.TryRead(p)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return n, errors.Wrap(err, "uart read")
	}
	return n, nil
}

func (u *UART) Write(p []byte) (int, error) {
	if !u.isOpen() {
		return 0, io.EOF
	}
	u.wmu.Lock()
	defer u.wmu.Unlock()

	n, err := u.sp.Write(p)
	return n, errors.Wrap(err, "uart write")
}

func (u *UART) Close() error {
	u.cmu.Lock()
	defer u.cmu.Unlock()

	select {
	case <-u.done:
		return nil
	default:
		close(u.done)
		return errors.Wrap(u.sp.Close(), "uart close")
	}
}

func (u *UART) String() string { return u.name }

func (u *UART) isOpen() bool {
	select {
	case <-u.done:
		return false
	default:
		return u.sp != nil
	}
}

func (u *UART) rxLoop() {
	lg := bleport.GetLogger().ChildLogger(map[string]interface{}{"pkg": "transport"})

	tmp := make([]byte, 512)
	for {
		select {
		case <-u.done:
			return
		default:
		}

		n, err := u.sp.Read(tmp)
		if err != nil || n == 0 {
			continue
		}

		w, err := u.rx.Write(tmp[:n])
		if err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
			lg.Errorf("rx buffer: %v", err)
			continue
		}
		if w < n {
			lg.Warnf("rx overflow, dropped %d bytes", n-w)
		}
		if w > 0 {
			u.notify.fire()
		}
	}
}
