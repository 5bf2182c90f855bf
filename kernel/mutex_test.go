package kernel

import "testing"

func TestMutexUninitialized(t *testing.T) {
	var m Mutex
	if err := m.Lock(NoWait); err != ErrInvalid {
		t.Fatalf("lock of uninitialized mutex: want ErrInvalid, got %v", err)
	}
	if err := m.Unlock(); err != ErrInvalid {
		t.Fatalf("unlock of uninitialized mutex: want ErrInvalid, got %v", err)
	}
}

func TestMutexRecursive(t *testing.T) {
	var m Mutex
	m.Init()

	for i := 1; i <= 3; i++ {
		if err := m.Lock(NoWait); err != nil {
			t.Fatalf("lock %d: %v", i, err)
		}
	}
	if n := m.HoldCount(); n != 3 {
		t.Fatalf("hold count: want 3, got %d", n)
	}

	for i := 3; i >= 1; i-- {
		if err := m.Unlock(); err != nil {
			t.Fatalf("unlock at depth %d: %v", i, err)
		}
	}
	if n := m.HoldCount(); n != 0 {
		t.Fatalf("hold count after full release: want 0, got %d", n)
	}
}

func TestMutexUnlockNotHeld(t *testing.T) {
	var m Mutex
	m.Init()

	if err := m.Unlock(); err != ErrNotOwner {
		t.Fatalf("unlock of free mutex: want ErrNotOwner, got %v", err)
	}
	if n := m.HoldCount(); n != 0 {
		t.Fatalf("count must stay clamped at zero, got %d", n)
	}

	// The mutex must still work after the violation.
	if err := m.Lock(NoWait); err != nil {
		t.Fatalf("lock after violation: %v", err)
	}
	if err := m.Unlock(); err != nil {
		t.Fatalf("unlock after violation: %v", err)
	}
}
