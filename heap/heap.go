// Package heap exposes the C-style allocation entry points of heapkit over
// one process-wide allocator: Malloc, Free, Realloc, Calloc and UsableSize.
//
// The entry points are thin. Each one delegates to the engine in heap/alloc,
// which serialises all mutation behind a single mutex and counts every
// Malloc, Free, Realloc and Calloc call.
// The allocator initialises itself on first use; there is nothing to
// construct.
//
// # Environment
//
// MALLOCVERBOSE controls the exit statistics. Unset, or set to anything but
// the literal "NO", leaves verbose mode on; "NO" turns it off.
//
// # Exit statistics
//
// Go has no atexit(3), so the statistics block is emitted by an explicit
// hook. Programs that want it defer the call from main:
//
//	func main() {
//		defer heap.AtExit()
//		...
//	}
package heap

import (
	"io"
	"os"
	"sync"
	"unsafe"

	"github.com/heapkit/heapkit/heap/alloc"
)

const (
	verboseEnvVar  = "MALLOCVERBOSE"
	verboseDisable = "NO"
)

var (
	once sync.Once
	def  *alloc.Allocator
)

// allocator returns the process-wide instance, building it on first use
// from the default settings plus the MALLOCVERBOSE override.
func allocator() *alloc.Allocator {
	once.Do(func() {
		setts := alloc.Defaultsettings()
		if os.Getenv(verboseEnvVar) == verboseDisable {
			setts["verbose"] = false
		}
		def = alloc.New(setts)
	})
	return def
}

// Malloc allocates size bytes and returns the payload address, 8-byte
// aligned, or nil when memory cannot be obtained.
func Malloc(size int) unsafe.Pointer {
	return allocator().Malloc(size)
}

// Free releases an allocation made by Malloc, Realloc or Calloc. Freeing
// nil is a no-op.
func Free(p unsafe.Pointer) {
	allocator().Free(p)
}

// Realloc resizes the allocation at p, preserving min(old, size) bytes. A
// nil p behaves as Malloc.
func Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	return allocator().Realloc(p, size)
}

// Calloc allocates zeroed memory for n elements of elemSize bytes.
func Calloc(n, elemSize int) unsafe.Pointer {
	return allocator().Calloc(n, elemSize)
}

// UsableSize returns the usable capacity of the allocation at p, at least
// the size originally requested.
func UsableSize(p unsafe.Pointer) int {
	return allocator().UsableSize(p)
}

// Bytes views an allocation as a byte slice of length n. n must not exceed
// UsableSize(p).
func Bytes(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

// Stats returns a consistent snapshot of allocator statistics.
func Stats() alloc.Stats {
	return allocator().Stats()
}

// DumpFreeList writes the single-line free-list rendering to w.
func DumpFreeList(w io.Writer) error {
	return allocator().DumpFreeList(w)
}

// AtExit prints the statistics block to stdout when verbose mode is on.
// Meant to be deferred from main.
func AtExit() {
	a := allocator()
	if a.Verbose() {
		a.WriteStats(os.Stdout) //nolint:errcheck // exit path
	}
}
