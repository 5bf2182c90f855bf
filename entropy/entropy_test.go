package entropy

import (
	"bytes"
	"testing"
)

func TestReadFills(t *testing.T) {
	if err := Read(nil); err != nil {
		t.Fatalf("zero-length read: %v", err)
	}

	a := make([]byte, 64)
	b := make([]byte, 64)
	if err := Read(a); err != nil {
		t.Fatal(err)
	}
	if err := Read(b); err != nil {
		t.Fatal(err)
	}

	// 64 zero bytes or two equal draws mean the source is not wired up.
	if bytes.Equal(a, make([]byte, 64)) {
		t.Fatal("read left the buffer zeroed")
	}
	if bytes.Equal(a, b) {
		t.Fatal("two draws must differ")
	}
}

func TestMustRead(t *testing.T) {
	p := make([]byte, 16)
	MustRead(p)
	if bytes.Equal(p, make([]byte, 16)) {
		t.Fatal("must-read left the buffer zeroed")
	}
}

func TestSourceNamed(t *testing.T) {
	if Source() == "" {
		t.Fatal("the selected source must have a name")
	}
}
