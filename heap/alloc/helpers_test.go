package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/internal/layout"
)

// newTestAllocator builds an allocator with a small slab so growth paths are
// cheap to reach, sanity checks on, and exit statistics silenced.
func newTestAllocator(tb testing.TB, slabsize int64) *Allocator {
	tb.Helper()
	setts := Defaultsettings()
	setts["slabsize"] = slabsize
	setts["verbose"] = false
	setts["checks"] = true
	return New(setts)
}

// assertInvariants walks every slab block by block and cross-checks the
// result against the free list. It enforces, at any quiescent point:
//
//  1. header and footer agree on size and status
//  2. the free list holds exactly the free blocks, each once
//  3. the free list is strictly ascending in address
//  4. no two free blocks are adjacent within a slab
//  5. block sizes within a slab sum to the slab extent minus the fenceposts
//  6. every payload is 8-byte aligned and inside its slab's fenceposts
func assertInvariants(tb testing.TB, a *Allocator) {
	tb.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()

	freeInSlabs := make(map[*layout.Header]bool)

	for si, slab := range a.slabs {
		base := uintptr(unsafe.Pointer(&slab[0]))
		limit := base + uintptr(len(slab))

		start := (*layout.Footer)(unsafe.Pointer(&slab[0]))
		require.True(tb, start.IsFencepost(), "slab %d start fencepost", si)
		end := (*layout.Footer)(unsafe.Pointer(&slab[len(slab)-layout.FooterSize]))
		require.True(tb, end.IsFencepost(), "slab %d end fencepost", si)

		sum := 0
		prevFree := false
		h := (*layout.Header)(unsafe.Pointer(&slab[layout.FooterSize]))
		for !h.IsFencepost() {
			addr := uintptr(unsafe.Pointer(h))
			require.Less(tb, addr, limit, "slab %d walk escaped the slab", si)

			f := h.Footer()
			require.Equal(tb, h.Size, f.Size,
				"slab %d block %#x: header/footer size mismatch", si, addr-base)
			require.Equal(tb, h.Status, f.Status,
				"slab %d block %#x: header/footer status mismatch", si, addr-base)
			require.Zero(tb, h.Size%layout.Alignment,
				"slab %d block %#x: unaligned size %d", si, addr-base, h.Size)
			require.GreaterOrEqual(tb, int(h.Size), layout.Overhead+layout.MinPayload,
				"slab %d block %#x: undersized block", si, addr-base)
			require.Zero(tb, uintptr(h.Payload())%layout.Alignment,
				"slab %d block %#x: unaligned payload", si, addr-base)

			switch h.Status {
			case layout.Unallocated:
				require.False(tb, prevFree,
					"slab %d: adjacent free blocks at %#x (missed coalesce)", si, addr-base)
				prevFree = true
				freeInSlabs[h] = true
			case layout.Allocated:
				prevFree = false
			default:
				tb.Fatalf("slab %d block %#x: bad status %d", si, addr-base, h.Status)
			}

			sum += int(h.Size)
			h = h.NextBlock()
		}
		require.Equal(tb, len(slab)-2*layout.FooterSize, sum,
			"slab %d: block sizes do not cover the slab", si)
	}

	seen := make(map[*layout.Header]bool)
	var last uintptr
	for h := a.list.sentinel.Next; h != &a.list.sentinel; h = h.Next {
		require.Equal(tb, layout.Unallocated, h.Status, "non-free block in free list")
		addr := uintptr(unsafe.Pointer(h))
		require.Greater(tb, addr, last, "free list not strictly ascending")
		last = addr
		require.False(tb, seen[h], "block appears twice in free list")
		seen[h] = true
		require.True(tb, freeInSlabs[h], "free-list node is not a free block in any slab")
		require.Same(tb, h, h.Next.Prev, "broken forward link")
		require.Same(tb, h, h.Prev.Next, "broken backward link")
	}
	require.Equal(tb, len(freeInSlabs), len(seen),
		"free blocks present in slabs but missing from the free list")
}

// freeBytes sums the free list under the mutex.
func freeBytes(a *Allocator) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n uint64
	for h := a.list.sentinel.Next; h != &a.list.sentinel; h = h.Next {
		n += h.Size
	}
	return n
}

// headerOf recovers the block header behind a payload pointer.
func headerOf(p unsafe.Pointer) *layout.Header {
	return layout.FromPayload(p)
}
