package alloc

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is a consistent snapshot of allocator state and counters.
type Stats struct {
	HeapSize uint64 // total bytes obtained from the OS
	NumSlabs int    // slabs obtained so far; never decreases

	// entry-point call counts
	Mallocs  uint64
	Frees    uint64
	Reallocs uint64
	Callocs  uint64

	// engine activity
	Splits           uint64
	CoalesceForward  uint64
	CoalesceBackward uint64
	CoalesceBoth     uint64

	// free-list shape at snapshot time
	FreeBlocks int
	FreeBytes  uint64
}

// Stats returns a snapshot taken under the allocator mutex.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Stats{
		HeapSize:         a.heapSize,
		NumSlabs:         a.numSlabs,
		Mallocs:          a.mallocs,
		Frees:            a.frees,
		Reallocs:         a.reallocs,
		Callocs:          a.callocs,
		Splits:           a.splits,
		CoalesceForward:  a.coalesceForward,
		CoalesceBackward: a.coalesceBackward,
		CoalesceBoth:     a.coalesceBoth,
	}
	for h := a.list.sentinel.Next; h != &a.list.sentinel; h = h.Next {
		st.FreeBlocks++
		st.FreeBytes += h.Size
	}
	return st
}

// Report renders the snapshot for humans: sizes through go-humanize, counts
// with grouped digits. This is the readable companion to the byte-exact
// exit block written by WriteStats.
func (s Stats) Report() string {
	pr := message.NewPrinter(language.English)
	var b strings.Builder
	fmt.Fprintf(&b, "heap:      %s in %d slab(s)\n",
		humanize.IBytes(s.HeapSize), s.NumSlabs)
	pr.Fprintf(&b, "calls:     %d malloc, %d free, %d realloc, %d calloc\n",
		s.Mallocs, s.Frees, s.Reallocs, s.Callocs)
	pr.Fprintf(&b, "engine:    %d splits, %d/%d/%d coalesces (fwd/back/both)\n",
		s.Splits, s.CoalesceForward, s.CoalesceBackward, s.CoalesceBoth)
	fmt.Fprintf(&b, "free list: %d block(s), %s\n",
		s.FreeBlocks, humanize.IBytes(s.FreeBytes))
	return b.String()
}
