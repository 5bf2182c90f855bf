package kernel

import (
	"testing"
	"unsafe"
)

func TestSlabInitValidation(t *testing.T) {
	var s MemSlab
	if err := s.Init(0, 4, 4); err != ErrInvalid {
		t.Fatalf("zero block size: want ErrInvalid, got %v", err)
	}
	if err := s.Init(16, 0, 4); err != ErrInvalid {
		t.Fatalf("zero count: want ErrInvalid, got %v", err)
	}
	if err := s.Init(16, 4, 3); err != ErrInvalid {
		t.Fatalf("non power-of-two align: want ErrInvalid, got %v", err)
	}
	if err := s.Init(10, 4, 4); err != ErrInvalid {
		t.Fatalf("block size not multiple of align: want ErrInvalid, got %v", err)
	}
	if _, err := s.Alloc(NoWait); err != ErrInvalid {
		t.Fatalf("alloc before init: want ErrInvalid, got %v", err)
	}
}

func TestSlabLazyFreeList(t *testing.T) {
	var s MemSlab
	if err := s.Init(32, 4, 8); err != nil {
		t.Fatal(err)
	}
	if s.built {
		t.Fatal("free list must not be built at init")
	}
	if n := s.Available(); n != 4 {
		t.Fatalf("available before first alloc: want 4, got %d", n)
	}

	if _, err := s.Alloc(NoWait); err != nil {
		t.Fatal(err)
	}
	if !s.built {
		t.Fatal("first alloc must build the free list")
	}
}

func TestSlabExhaustAndReuse(t *testing.T) {
	const blocks = 4
	var s MemSlab
	if err := s.Init(64, blocks, 8); err != nil {
		t.Fatal(err)
	}

	var got [][]byte
	for i := 0; i < blocks; i++ {
		b, err := s.Alloc(NoWait)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		if len(b) != 64 {
			t.Fatalf("block length: want 64, got %d", len(b))
		}
		if !s.Contains(b) {
			t.Fatalf("block %d outside the arena", i)
		}
		// Marking each block proves they do not overlap.
		for j := range b {
			b[j] = byte(i)
		}
		got = append(got, b)
	}

	if _, err := s.Alloc(NoWait); err != ErrExhausted {
		t.Fatalf("alloc on exhausted slab: want ErrExhausted, got %v", err)
	}
	if n := s.Used(); n != blocks {
		t.Fatalf("used: want %d, got %d", blocks, n)
	}

	for i, b := range got {
		for j := range b {
			if b[j] != byte(i) {
				t.Fatalf("block %d corrupted at %d", i, j)
			}
		}
	}

	if err := s.Free(got[1]); err != nil {
		t.Fatalf("free: %v", err)
	}
	b, err := s.Alloc(NoWait)
	if err != nil {
		t.Fatalf("alloc after free: %v", err)
	}
	if !s.Contains(b) {
		t.Fatal("reused block must lie within the arena")
	}
	if &b[0] != &got[1][0] {
		t.Fatal("the freed block must be handed out again")
	}
}

func TestSlabAlignment(t *testing.T) {
	const align = 16
	var s MemSlab
	if err := s.Init(32, 3, align); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		b, err := s.Alloc(NoWait)
		if err != nil {
			t.Fatal(err)
		}
		if uintptr(unsafe.Pointer(&b[0]))%align != 0 {
			t.Fatalf("block %d not %d-byte aligned", i, align)
		}
	}
}

func TestSlabFreeValidation(t *testing.T) {
	var s MemSlab
	if err := s.Init(32, 2, 8); err != nil {
		t.Fatal(err)
	}
	b, err := s.Alloc(NoWait)
	if err != nil {
		t.Fatal(err)
	}

	foreign := make([]byte, 32)
	if err := s.Free(foreign); err != ErrInvalid {
		t.Fatalf("free of foreign block: want ErrInvalid, got %v", err)
	}
	if err := s.Free(b[:16]); err != ErrInvalid {
		t.Fatalf("free of partial block: want ErrInvalid, got %v", err)
	}

	if err := s.Free(b); err != nil {
		t.Fatalf("free: %v", err)
	}
	if err := s.Free(b); err != ErrInvalid {
		t.Fatalf("double free: want ErrInvalid, got %v", err)
	}
	if n := s.Used(); n != 0 {
		t.Fatalf("used after violations: want 0, got %d", n)
	}
}

func TestSlabTimedAllocWhenExhausted(t *testing.T) {
	var s MemSlab
	if err := s.Init(16, 1, 8); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Alloc(NoWait); err != nil {
		t.Fatal(err)
	}
	// No second flow can free cooperatively, so a timed alloc reports
	// exhaustion at once instead of stalling the loop.
	if _, err := s.Alloc(Msec(10)); err != ErrExhausted && err != ErrTimedOut {
		t.Fatalf("timed alloc on exhausted slab: got %v", err)
	}
}
