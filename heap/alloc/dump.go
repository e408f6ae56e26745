package alloc

import (
	"io"
	"strconv"
	"unsafe"

	"github.com/heapkit/heapkit/internal/layout"
)

// Diagnostic output is assembled into a scratch buffer under the mutex and
// written in a single call after release, so nothing is printed from inside
// a critical section and interleaved output stays whole.

// WriteStats writes the exit statistics block: heap size and the number of
// calls to each entry point.
func (a *Allocator) WriteStats(w io.Writer) error {
	a.mu.Lock()
	buf := make([]byte, 0, 160)
	buf = append(buf, "\n-------------------\n"...)
	buf = append(buf, "HeapSize:\t"...)
	buf = strconv.AppendUint(buf, a.heapSize, 10)
	buf = append(buf, " bytes\n"...)
	buf = appendCounter(buf, "# mallocs:\t", a.mallocs)
	buf = appendCounter(buf, "# reallocs:\t", a.reallocs)
	buf = appendCounter(buf, "# callocs:\t", a.callocs)
	buf = appendCounter(buf, "# frees:\t", a.frees)
	buf = append(buf, "\n-------------------\n"...)
	a.mu.Unlock()

	_, err := w.Write(buf)
	return err
}

func appendCounter(buf []byte, label string, n uint64) []byte {
	buf = append(buf, label...)
	buf = strconv.AppendUint(buf, n, 10)
	return append(buf, '\n')
}

// DumpFreeList writes a single-line rendering of the free list:
//
//	FreeList: [offset:O,size:S]->[offset:O,size:S]->...
//
// where offset is the byte distance from the first slab's first block
// header. An empty list renders as "FreeList: " alone. Offsets of blocks in
// later slabs can be negative when the OS hands out a lower mapping.
func (a *Allocator) DumpFreeList(w io.Writer) error {
	a.mu.Lock()
	buf := make([]byte, 0, 256)
	buf = append(buf, "FreeList: "...)
	for h := a.list.sentinel.Next; h != &a.list.sentinel; h = h.Next {
		buf = append(buf, "[offset:"...)
		buf = strconv.AppendInt(buf, a.offsetOf(h), 10)
		buf = append(buf, ",size:"...)
		buf = strconv.AppendUint(buf, h.Size, 10)
		buf = append(buf, ']')
		if h.Next != &a.list.sentinel {
			buf = append(buf, "->"...)
		}
	}
	buf = append(buf, '\n')
	a.mu.Unlock()

	_, err := w.Write(buf)
	return err
}

// offsetOf returns h's signed byte distance from the dump origin. Called
// with mu held and at least one slab mapped.
func (a *Allocator) offsetOf(h *layout.Header) int64 {
	return int64(uintptr(unsafe.Pointer(h))) -
		int64(uintptr(unsafe.Pointer(a.memStart)))
}
