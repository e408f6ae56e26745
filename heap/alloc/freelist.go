package alloc

import (
	"unsafe"

	"github.com/heapkit/heapkit/internal/layout"
)

// freeList is a circular doubly-linked list of unallocated blocks, anchored
// by a permanent sentinel and kept in ascending address order. The links
// live inside the free blocks themselves (layout.Header.Next/Prev); the list
// only ever touches blocks whose status is Unallocated.
//
// Walks terminate on identity comparison with the sentinel, never on status:
// the sentinel is the one node whose address is outside every slab.
type freeList struct {
	sentinel layout.Header
}

func (l *freeList) init() {
	l.sentinel.Size = 0
	l.sentinel.Status = layout.Sentinel
	l.sentinel.Next = &l.sentinel
	l.sentinel.Prev = &l.sentinel
}

func (l *freeList) empty() bool {
	return l.sentinel.Next == &l.sentinel
}

// insertAfter splices h into the list directly after at.
func (l *freeList) insertAfter(at, h *layout.Header) {
	h.Prev = at
	h.Next = at.Next
	at.Next.Prev = h
	at.Next = h
}

// unlink removes h from the list. h's own links are left stale; they stop
// being metadata the moment the block is no longer free.
func (l *freeList) unlink(h *layout.Header) {
	h.Prev.Next = h.Next
	h.Next.Prev = h.Prev
}

// replace splices repl into the exact list position held by old. Used when a
// freed block absorbs its higher-address neighbor: the merged block starts
// lower but occupies the same slot in address order.
func (l *freeList) replace(old, repl *layout.Header) {
	repl.Next = old.Next
	repl.Prev = old.Prev
	repl.Prev.Next = repl
	repl.Next.Prev = repl
}

// insertOrdered walks from the sentinel and splices h in before the first
// block whose address exceeds h's, keeping the list sorted by address.
func (l *freeList) insertOrdered(h *layout.Header) {
	at := &l.sentinel
	for at.Next != &l.sentinel &&
		uintptr(unsafe.Pointer(at.Next)) < uintptr(unsafe.Pointer(h)) {
		at = at.Next
	}
	l.insertAfter(at, h)
}
