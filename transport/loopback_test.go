package transport

import (
	"bytes"
	"io"
	"testing"

	"github.com/rigado/bleport"
)

// Both ends satisfy the transport contract the device table hands out.
var _ bleport.Transport = (*Loopback)(nil)

func TestLoopbackRoundTrip(t *testing.T) {
	host, ctrl := NewLoopback()

	frame := []byte{0x01, 0x03, 0x0c, 0x00}
	n, err := host.Write(frame)
	if err != nil || n != len(frame) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	buf := make([]byte, 16)
	n, err = ctrl.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:n], frame) {
		t.Fatalf("want %x, got %x", frame, buf[:n])
	}

	// And the other direction.
	reply := []byte{0x04, 0x0e, 0x04, 0x01, 0x03, 0x0c, 0x00}
	if _, err := ctrl.Write(reply); err != nil {
		t.Fatal(err)
	}
	n, err = host.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:n], reply) {
		t.Fatalf("want %x, got %x", reply, buf[:n])
	}
}

func TestLoopbackEmptyRead(t *testing.T) {
	host, _ := NewLoopback()

	// Open and empty must not block and not error.
	n, err := host.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Fatalf("empty read: n=%d err=%v", n, err)
	}
}

func TestLoopbackNotify(t *testing.T) {
	host, ctrl := NewLoopback()

	hits := 0
	ctrl.OnData(func() { hits++ })

	if _, err := host.Write([]byte{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := host.Write([]byte{2}); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Fatalf("notify per landing write: want 2, got %d", hits)
	}

	// Reads do not notify, and clearing stops callbacks.
	if _, err := ctrl.Read(make([]byte, 4)); err != nil {
		t.Fatal(err)
	}
	ctrl.OnData(nil)
	if _, err := host.Write([]byte{3}); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Fatalf("cleared notify must not fire, got %d", hits)
	}
}

func TestLoopbackClose(t *testing.T) {
	host, ctrl := NewLoopback()

	if err := host.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := host.Read(make([]byte, 4)); err != io.EOF {
		t.Fatalf("read after close: want EOF, got %v", err)
	}
	if _, err := host.Write([]byte{1}); err != io.EOF {
		t.Fatalf("write after close: want EOF, got %v", err)
	}
	// The peer cannot write into a closed end either.
	if _, err := ctrl.Write([]byte{1}); err != io.EOF {
		t.Fatalf("peer write after close: want EOF, got %v", err)
	}
}

func TestLoopbackNames(t *testing.T) {
	a, b := NewLoopback()
	if a.String() == "" || a.String() == b.String() {
		t.Fatalf("ends must carry distinct names, got %q/%q", a.String(), b.String())
	}
}
