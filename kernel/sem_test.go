package kernel

import "testing"

func TestSemaphoreInitValidation(t *testing.T) {
	var s Semaphore
	if err := s.Init(0, 0); err != ErrInvalid {
		t.Fatalf("zero limit: want ErrInvalid, got %v", err)
	}
	if err := s.Init(3, 2); err != ErrInvalid {
		t.Fatalf("initial above limit: want ErrInvalid, got %v", err)
	}
	if err := s.Take(NoWait); err != ErrInvalid {
		t.Fatalf("take before init: want ErrInvalid, got %v", err)
	}
}

func TestSemaphoreTakeEmpty(t *testing.T) {
	var s Semaphore
	if err := s.Init(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Take(NoWait); err != ErrBusy {
		t.Fatalf("no-wait take on zero count: want ErrBusy, got %v", err)
	}
	if err := s.Take(Msec(5)); err != ErrTimedOut {
		t.Fatalf("timed take on zero count: want ErrTimedOut, got %v", err)
	}
}

func TestSemaphoreGiveSaturates(t *testing.T) {
	var s Semaphore
	if err := s.Init(0, 2); err != nil {
		t.Fatal(err)
	}

	s.Give()
	s.Give()
	s.Give() // beyond the limit, dropped
	if n := s.Count(); n != 2 {
		t.Fatalf("count must saturate at limit 2, got %d", n)
	}

	if err := s.Take(NoWait); err != nil {
		t.Fatalf("take: %v", err)
	}
	if n := s.Count(); n != 1 {
		t.Fatalf("count after take: want 1, got %d", n)
	}
}

func TestSemaphoreReset(t *testing.T) {
	var s Semaphore
	if err := s.Init(2, 4); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if n := s.Count(); n != 0 {
		t.Fatalf("count after reset: want 0, got %d", n)
	}
	if err := s.Take(NoWait); err != ErrBusy {
		t.Fatalf("take after reset: want ErrBusy, got %v", err)
	}
}
