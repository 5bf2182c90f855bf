package kernel

import "testing"

// node is a representative queue element: intrusive link first, payload
// after, the layout the stack's buffers use.
type node struct {
	Link
	id int
}

func getID(t *testing.T, q interface {
	Get(Timeout) (Linker, error)
}) int {
	t.Helper()
	e, err := q.Get(NoWait)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	n, ok := e.(*node)
	if !ok {
		t.Fatalf("get returned %T, want *node", e)
	}
	return n.id
}

func TestFIFOOrder(t *testing.T) {
	var f FIFO
	f.Init()

	a, b, c := &node{id: 1}, &node{id: 2}, &node{id: 3}
	f.Put(a)
	f.Put(b)
	f.Put(c)

	for want := 1; want <= 3; want++ {
		if got := getID(t, &f); got != want {
			t.Fatalf("fifo order: want %d, got %d", want, got)
		}
	}
	if !f.IsEmpty() {
		t.Fatal("queue must be empty after draining")
	}
}

func TestLIFOOrder(t *testing.T) {
	var l LIFO
	l.Init()

	l.Put(&node{id: 1})
	l.Put(&node{id: 2})
	l.Put(&node{id: 3})

	for want := 3; want >= 1; want-- {
		if got := getID(t, &l); got != want {
			t.Fatalf("lifo order: want %d, got %d", want, got)
		}
	}
}

func TestFIFOPutFront(t *testing.T) {
	var f FIFO
	f.Init()

	f.Put(&node{id: 1})
	f.Put(&node{id: 2})
	f.PutFront(&node{id: 9})

	if got := getID(t, &f); got != 9 {
		t.Fatalf("put-front element must come out first, got %d", got)
	}
	if got := getID(t, &f); got != 1 {
		t.Fatalf("want 1 after requeued head, got %d", got)
	}
}

func TestQueueGetEmpty(t *testing.T) {
	var f FIFO
	f.Init()

	if _, err := f.Get(NoWait); err != ErrEmpty {
		t.Fatalf("no-wait get on empty: want ErrEmpty, got %v", err)
	}
	// The cooperative backend cannot wait for a producer either.
	if _, err := f.Get(Msec(5)); err != ErrEmpty && err != ErrTimedOut {
		t.Fatalf("timed get on empty: want empty/timeout, got %v", err)
	}
}

func TestQueueUninitialized(t *testing.T) {
	var f FIFO
	if _, err := f.Get(NoWait); err != ErrInvalid {
		t.Fatalf("get on uninitialized queue: want ErrInvalid, got %v", err)
	}
}

func TestQueueLinkClearedOnGet(t *testing.T) {
	var f FIFO
	f.Init()

	a, b := &node{id: 1}, &node{id: 2}
	f.Put(a)
	f.Put(b)

	e, err := f.Get(NoWait)
	if err != nil {
		t.Fatal(err)
	}
	if e.Next() != nil {
		t.Fatal("dequeued element must have its link cleared")
	}

	// Ownership is back with the consumer; requeue must work.
	f.Put(e)
	if got := getID(t, &f); got != 2 {
		t.Fatalf("want 2, got %d", got)
	}
	if got := getID(t, &f); got != 1 {
		t.Fatalf("want requeued 1, got %d", got)
	}
}

func TestQueueRemove(t *testing.T) {
	var f FIFO
	f.Init()

	a, b, c := &node{id: 1}, &node{id: 2}, &node{id: 3}
	f.Put(a)
	f.Put(b)
	f.Put(c)

	if !f.Remove(b) {
		t.Fatal("remove of queued element must succeed")
	}
	if f.Remove(b) {
		t.Fatal("second remove must report not found")
	}
	if got := getID(t, &f); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := getID(t, &f); got != 3 {
		t.Fatalf("want 3, got %d", got)
	}

	// Removing the tail must fix the tail pointer.
	f.Put(a)
	f.Put(b)
	if !f.Remove(b) {
		t.Fatal("remove tail")
	}
	f.Put(c)
	if got := getID(t, &f); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := getID(t, &f); got != 3 {
		t.Fatalf("want 3 appended after tail removal, got %d", got)
	}
}

func TestQueuePeek(t *testing.T) {
	var f FIFO
	f.Init()
	if f.PeekHead() != nil {
		t.Fatal("peek on empty queue must be nil")
	}

	a := &node{id: 7}
	f.Put(a)
	if f.PeekHead() != a {
		t.Fatal("peek must return the head without removing it")
	}
	if f.IsEmpty() {
		t.Fatal("peek must not consume the element")
	}
}
