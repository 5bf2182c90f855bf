package kernel

import "unsafe"

// free list markers
const (
	slabEnd   int32 = -1 // last free block
	slabTaken int32 = -2 // block is allocated out
)

// A MemSlab hands out fixed-size blocks from one contiguous arena. The
// stack sizes its pools at build time and allocates on the hot RX path,
// so Alloc and Free are O(1) and allocate nothing themselves after Init.
//
// The free list is index-linked and built lazily on the first Alloc, not
// at Init. Exhaustion is an expected condition, reported as ErrExhausted,
// and distinct from a timed wait expiring.
type MemSlab struct {
	l lock
	w waitq

	buf        []byte
	blockSize  int
	blockCount int
	align      int

	next  []int32 // next[i] links free block i, or marks it taken
	free  int32   // head of the free list
	built bool    // free list exists; set on first Alloc
	inUse int
}

// Init allocates the arena. The block size must be a positive multiple of
// align and align a power of two, so every block starts align-aligned.
func (s *MemSlab) Init(blockSize, blockCount, align int) error {
	if blockSize <= 0 || blockCount <= 0 || align <= 0 {
		return ErrInvalid
	}
	if align&(align-1) != 0 || blockSize%align != 0 {
		return ErrInvalid
	}

	// Over-allocate so the first block can be pushed up to an aligned
	// address regardless of where the allocator put the backing array.
	raw := make([]byte, blockSize*blockCount+align-1)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}

	s.l.acquire()
	s.buf = raw[off : off+blockSize*blockCount]
	s.blockSize = blockSize
	s.blockCount = blockCount
	s.align = align
	s.next = make([]int32, blockCount)
	s.free = slabEnd
	s.built = false
	s.inUse = 0
	s.w.init()
	s.l.release()
	return nil
}

// buildFreeList links every block into the free list, ascending. Runs
// under s.l on the first Alloc.
func (s *MemSlab) buildFreeList() {
	for i := 0; i < s.blockCount-1; i++ {
		s.next[i] = int32(i + 1)
	}
	s.next[s.blockCount-1] = slabEnd
	s.free = 0
	s.built = true
}

// Alloc takes one block, waiting at most to for one to be freed. The
// returned slice is exactly one block long with no spare capacity, so an
// append cannot silently bleed into the neighbor block. An exhausted slab
// returns ErrExhausted on a no-wait request; only a real expired wait
// returns ErrTimedOut.
func (s *MemSlab) Alloc(to Timeout) ([]byte, error) {
	s.l.acquire()
	defer s.l.release()

	if s.buf == nil {
		return nil, ErrInvalid
	}
	if !s.built {
		s.buildFreeList()
	}
	for s.free == slabEnd {
		if !s.w.wait(&s.l, to) {
			if to.IsNoWait() || !ThreadBackend {
				return nil, ErrExhausted
			}
			return nil, ErrTimedOut
		}
	}

	i := s.free
	s.free = s.next[i]
	s.next[i] = slabTaken
	s.inUse++

	off := int(i) * s.blockSize
	return s.buf[off : off+s.blockSize : off+s.blockSize], nil
}

// Free returns a block to the slab. The slice must be exactly the block
// that Alloc returned: anything outside the arena, misaligned within it
// or of the wrong length is rejected with ErrInvalid and the arena stays
// untouched. Freeing a block twice is a contract violation.
func (s *MemSlab) Free(block []byte) error {
	s.l.acquire()
	defer s.l.release()

	if s.buf == nil || !s.built {
		return ErrInvalid
	}
	i, ok := s.indexOf(block)
	if !ok {
		return ErrInvalid
	}
	if s.next[i] != slabTaken {
		check(false, "double free of slab block %d", i)
		return ErrInvalid
	}

	s.next[i] = s.free
	s.free = i
	s.inUse--
	s.w.wake(1)
	return nil
}

// Contains reports whether block lies inside the arena on a block
// boundary, regardless of allocation state.
func (s *MemSlab) Contains(block []byte) bool {
	s.l.acquire()
	defer s.l.release()
	if s.buf == nil {
		return false
	}
	_, ok := s.indexOf(block)
	return ok
}

// indexOf maps a block slice back to its index. Caller holds s.l.
func (s *MemSlab) indexOf(block []byte) (int32, bool) {
	if len(block) != s.blockSize {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&s.buf[0]))
	p := uintptr(unsafe.Pointer(&block[0]))
	if p < base || p >= base+uintptr(len(s.buf)) {
		return 0, false
	}
	off := int(p - base)
	if off%s.blockSize != 0 {
		return 0, false
	}
	return int32(off / s.blockSize), true
}

// Used returns the number of blocks currently allocated out.
func (s *MemSlab) Used() int {
	s.l.acquire()
	defer s.l.release()
	return s.inUse
}

// Available returns the number of blocks that an Alloc could take right
// now.
func (s *MemSlab) Available() int {
	s.l.acquire()
	defer s.l.release()
	if s.buf == nil {
		return 0
	}
	return s.blockCount - s.inUse
}

// BlockSize returns the configured block size, 0 before Init.
func (s *MemSlab) BlockSize() int {
	s.l.acquire()
	defer s.l.release()
	return s.blockSize
}
