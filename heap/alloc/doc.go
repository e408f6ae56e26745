// Package alloc implements the free-block engine behind the heap facade: a
// first-fit allocator over an explicit, address-ordered free list of
// variable-sized blocks.
//
// # Overview
//
// Memory is obtained from the operating system in large slabs
// (internal/osmem) and carved into blocks whose boundary-tag metadata is
// described by internal/layout. The engine owns the policy:
//
//   - Malloc: first-fit search in ascending address order, splitting the
//     high-address tail off a larger block, growing the heap by one slab
//     when the list is exhausted
//   - Free: eager three-way coalescing with whichever neighbors are free,
//     bounded by the fenceposts at slab edges
//   - Realloc / Calloc: built on the two operations above
//
// # Invariants
//
// Outside a locked critical section:
//
//   - every block's header and footer agree on size and status
//   - every free block appears exactly once in the free list, sorted by
//     ascending address; no allocated block appears
//   - no two free blocks are adjacent within a slab
//   - every payload address is 8-byte aligned
//
// # Thread safety
//
// A single mutex per Allocator serialises all mutation. Every exported
// operation acquires it on entry; Realloc drops it only for the payload
// copy, which the caller's own contract already makes race-free.
//
// The process-wide instance used by C-style programs lives in the parent
// heap package.
package alloc
