package alloc

import (
	"math/bits"
	"sync"
	"unsafe"

	s "github.com/bnclabs/gosettings"

	"github.com/heapkit/heapkit/internal/layout"
	"github.com/heapkit/heapkit/internal/osmem"
)

// Allocator is a first-fit free-block allocator. One instance manages any
// number of slabs obtained from the OS; all state is guarded by mu.
type Allocator struct {
	mu   sync.Mutex
	list freeList

	// configuration
	slabPayload int  // usable bytes of a fresh slab's spanning block
	verbose     bool // emit statistics from the exit hook
	checks      bool // metadata sanity checks on Free

	// slabs pins every region obtained from the OS for the life of the
	// process, and lets diagnostics walk blocks slab by slab.
	slabs [][]byte

	// memStart is the first slab's first block header, the origin for
	// free-list dump offsets.
	memStart *layout.Header

	heapSize uint64 // total bytes obtained from the OS
	numSlabs int

	// entry-point counters
	mallocs  uint64
	frees    uint64
	reallocs uint64
	callocs  uint64

	// engine counters
	splits           uint64
	coalesceForward  uint64
	coalesceBackward uint64
	coalesceBoth     uint64
}

// New creates an Allocator from a settings map, normally
// Defaultsettings() with overrides mixed in. Invalid settings panic.
func New(setts s.Settings) *Allocator {
	slabsize := setts.Int64("slabsize")
	if err := validateslabsize(slabsize); err != nil {
		panic(err)
	}
	a := &Allocator{
		slabPayload: int(slabsize),
		verbose:     setts.Bool("verbose"),
		checks:      setts.Bool("checks"),
	}
	a.list.init()
	return a
}

// Verbose reports whether the exit hook should print statistics.
func (a *Allocator) Verbose() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verbose
}

// maxBlock is the largest block size a single slab can satisfy: the size of
// a fresh slab's spanning block.
func (a *Allocator) maxBlock() uint64 {
	return uint64(a.slabPayload + layout.Overhead)
}

// Malloc allocates a usable region of at least size bytes and returns its
// 8-byte-aligned payload address, or nil when the OS refuses memory or the
// request exceeds a slab's capacity.
func (a *Allocator) Malloc(size int) unsafe.Pointer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mallocs++
	return a.allocate(size)
}

// Free returns the block holding p to the free list, merging it with any
// unallocated neighbor. A nil p is a no-op (but still counted).
func (a *Allocator) Free(p unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frees++
	if p != nil {
		a.free(p)
	}
}

// Realloc resizes the allocation at p to size bytes, preserving
// min(old payload, size) bytes. A nil p behaves as Malloc. The payload copy
// runs outside the mutex: once Realloc has been called, freeing or
// reallocating p concurrently is already a data race on the caller's side.
func (a *Allocator) Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	a.mu.Lock()
	a.reallocs++
	np := a.allocate(size)
	a.mu.Unlock()

	if p == nil || np == nil {
		return np
	}

	n := layout.FromPayload(p).PayloadSize()
	if n > size {
		n = size
	}
	copy(unsafe.Slice((*byte)(np), n), unsafe.Slice((*byte)(p), n))

	a.mu.Lock()
	a.free(p)
	a.mu.Unlock()
	return np
}

// Calloc allocates a zero-filled region large enough for n elements of
// elemSize bytes each. Requests whose product overflows are rejected.
func (a *Allocator) Calloc(n, elemSize int) unsafe.Pointer {
	a.mu.Lock()
	a.callocs++
	if n < 0 || elemSize < 0 {
		a.mu.Unlock()
		return nil
	}
	hi, total := bits.Mul64(uint64(n), uint64(elemSize))
	if hi != 0 || total > uint64(int(^uint(0)>>1)) {
		a.mu.Unlock()
		return nil
	}
	p := a.allocate(int(total))
	a.mu.Unlock()

	if p != nil {
		clear(unsafe.Slice((*byte)(p), int(total)))
	}
	return p
}

// UsableSize returns the payload capacity of the block holding p, which is
// at least the size originally requested.
func (a *Allocator) UsableSize(p unsafe.Pointer) int {
	if p == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return layout.FromPayload(p).PayloadSize()
}

// allocate runs the first-fit search. Called with mu held.
func (a *Allocator) allocate(size int) unsafe.Pointer {
	if size < layout.MinPayload {
		size = layout.MinPayload
	}
	size = layout.Align8(size)
	blockSize := uint64(layout.Align8(size + layout.Overhead))

	if blockSize > a.maxBlock() {
		ERR("allocate: %v byte request exceeds slab capacity %v",
			blockSize, a.maxBlock())
		return nil
	}

	for {
		for h := a.list.sentinel.Next; h != &a.list.sentinel; h = h.Next {
			if have := h.Size; have >= blockSize+uint64(layout.Overhead+layout.MinPayload) {
				return a.split(h, blockSize)
			} else if have >= blockSize {
				// Take the block whole; the residue is too small
				// to stand alone and stays inside as internal
				// fragmentation.
				a.list.unlink(h)
				h.Stamp(have, layout.Allocated)
				return h.Payload()
			}
		}
		// Exhausted. Grow by one slab and restart from the head of the
		// list so earlier holes keep first consideration.
		if !a.grow() {
			return nil
		}
	}
}

// split carves blockSize bytes off the high-address end of h. The low end
// stays free at its position in the list, so no relinking is needed.
func (a *Allocator) split(h *layout.Header, blockSize uint64) unsafe.Pointer {
	h.Stamp(h.Size-blockSize, layout.Unallocated)
	nh := h.NextBlock()
	nh.Stamp(blockSize, layout.Allocated)
	a.splits++
	return nh.Payload()
}

// grow obtains, formats and enlists one fresh slab. Called with mu held.
func (a *Allocator) grow() bool {
	span := layout.SlabSpan(a.slabPayload)
	region, err := osmem.Map(span)
	if err != nil {
		ERR("grow: %s", err)
		return false
	}
	a.heapSize += uint64(span)
	a.numSlabs++
	a.slabs = append(a.slabs, region)

	h := layout.FormatSlab(region)
	if a.memStart == nil {
		a.memStart = h
	}
	a.list.insertOrdered(h)
	return true
}

// free marks the block holding p unallocated and coalesces it with
// whichever same-slab neighbors are free. Called with mu held, p non-nil.
func (a *Allocator) free(p unsafe.Pointer) {
	h := layout.FromPayload(p)
	if a.checks {
		a.checkFreeable(h)
	}
	h.Stamp(h.Size, layout.Unallocated)

	// Classify neighbors. A fencepost at either side means the block
	// borders its slab's edge: there is no neighbor to merge with, even
	// when another slab happens to sit adjacent in memory.
	next := h.NextBlock()
	nextFree := !next.IsFencepost() && next.Status == layout.Unallocated

	pf := h.PrevFooter()
	prevFree := !pf.IsFencepost() && pf.Status == layout.Unallocated

	switch {
	case !prevFree && !nextFree:
		a.list.insertOrdered(h)

	case !prevFree && nextFree:
		// Absorb next: h takes next's position in the list.
		a.coalesceForward++
		merged := h.Size + next.Size
		a.list.replace(next, h)
		h.Stamp(merged, layout.Unallocated)

	case prevFree && !nextFree:
		// Absorb h into prev; prev keeps its list position.
		a.coalesceBackward++
		prev := h.PrevBlock()
		prev.Stamp(prev.Size+h.Size, layout.Unallocated)

	default:
		// Absorb h and next into prev.
		a.coalesceBoth++
		prev := h.PrevBlock()
		a.list.unlink(next)
		prev.Stamp(prev.Size+h.Size+next.Size, layout.Unallocated)
	}
}

// checkFreeable panics when the header under a Free call does not look like
// a live allocated block. Catches double frees and wild pointers early, at
// the cost of one extra footer read.
func (a *Allocator) checkFreeable(h *layout.Header) {
	if h.Status != layout.Allocated || h.Size == 0 {
		PANIC("free of non-allocated block %p (status=%d size=%d)",
			unsafe.Pointer(h), h.Status, h.Size)
	}
	f := h.Footer()
	if f.Size != h.Size || f.Status != h.Status {
		PANIC("corrupted boundary tags at %p (header %d/%d footer %d/%d)",
			unsafe.Pointer(h), h.Status, h.Size, f.Status, f.Size)
	}
}
