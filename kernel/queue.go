package kernel

// Linker is implemented by anything that can sit in a FIFO or LIFO. The
// link is reserved for the queue: ownership of an element transfers from
// producer to queue on Put and from queue to consumer on Get, and the
// element's link belongs to the queue in between. Elements are never
// copied and an element may sit in at most one queue at a time.
type Linker interface {
	Next() Linker
	SetNext(Linker)
}

// Link is a ready-made Linker for embedding in queue elements.
type Link struct {
	next Linker
}

func (l *Link) Next() Linker     { return l.next }
func (l *Link) SetNext(n Linker) { l.next = n }

// queue is the shared core: a singly linked chain with head and tail so
// both append and prepend are O(1), plus a waitq for blocking gets.
type queue struct {
	l           lock
	w           waitq
	head        Linker
	tail        Linker
	initialized bool
}

func (q *queue) init() {
	q.l.acquire()
	q.initialized = true
	q.head = nil
	q.tail = nil
	q.w.init()
	q.l.release()
}

func (q *queue) put(e Linker, front bool) {
	if e == nil {
		check(false, "put of nil element")
		return
	}

	q.l.acquire()
	defer q.l.release()

	if !q.initialized {
		check(false, "put on uninitialized queue")
		return
	}
	// A non-nil link means e still sits in some queue. Only non-tail
	// positions are detectable, but that catches most double-puts.
	check(e.Next() == nil, "element already linked into a queue")

	e.SetNext(nil)
	switch {
	case q.head == nil:
		q.head = e
		q.tail = e
	case front:
		e.SetNext(q.head)
		q.head = e
	default:
		q.tail.SetNext(e)
		q.tail = e
	}
	q.w.wake(1)
}

func (q *queue) get(to Timeout) (Linker, error) {
	q.l.acquire()
	defer q.l.release()

	if !q.initialized {
		return nil, ErrInvalid
	}
	for q.head == nil {
		if !q.w.wait(&q.l, to) {
			if to.IsNoWait() || !ThreadBackend {
				return nil, ErrEmpty
			}
			return nil, ErrTimedOut
		}
	}
	e := q.head
	q.head = e.Next()
	if q.head == nil {
		q.tail = nil
	}
	e.SetNext(nil)
	return e, nil
}

func (q *queue) remove(e Linker) bool {
	q.l.acquire()
	defer q.l.release()

	var prev Linker
	for cur := q.head; cur != nil; cur = cur.Next() {
		if cur != e {
			prev = cur
			continue
		}
		if prev == nil {
			q.head = cur.Next()
		} else {
			prev.SetNext(cur.Next())
		}
		if q.tail == cur {
			q.tail = prev
		}
		e.SetNext(nil)
		return true
	}
	return false
}

func (q *queue) peek() Linker {
	q.l.acquire()
	defer q.l.release()
	return q.head
}

func (q *queue) empty() bool { return q.peek() == nil }

// A FIFO hands elements back in the order they were put.
type FIFO struct {
	q queue
}

func (f *FIFO) Init() { f.q.init() }

// Put appends e to the tail.
func (f *FIFO) Put(e Linker) { f.q.put(e, false) }

// PutFront pushes e ahead of everything already queued; the requeue path
// for an element a consumer took but could not finish with.
func (f *FIFO) PutFront(e Linker) { f.q.put(e, true) }

// Get removes and returns the head element. An empty queue returns
// ErrEmpty on a no-wait get and ErrTimedOut when a real wait expired.
func (f *FIFO) Get(to Timeout) (Linker, error) { return f.q.get(to) }

// Remove unlinks e wherever it sits in the queue. Reports whether it was
// found.
func (f *FIFO) Remove(e Linker) bool { return f.q.remove(e) }

// PeekHead returns the head element without removing it.
func (f *FIFO) PeekHead() Linker { return f.q.peek() }

func (f *FIFO) IsEmpty() bool { return f.q.empty() }

// A LIFO hands elements back newest first.
type LIFO struct {
	q queue
}

func (l *LIFO) Init() { l.q.init() }

// Put pushes e to the head.
func (l *LIFO) Put(e Linker) { l.q.put(e, true) }

// Get removes and returns the most recently put element, with FIFO's
// error contract.
func (l *LIFO) Get(to Timeout) (Linker, error) { return l.q.get(to) }

func (l *LIFO) PeekHead() Linker { return l.q.peek() }

func (l *LIFO) IsEmpty() bool { return l.q.empty() }
