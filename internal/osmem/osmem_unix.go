//go:build unix

// Package osmem obtains raw slabs of memory from the operating system.
//
// A slab is a writable, page-aligned contiguous region whose lifetime is the
// life of the process. Slabs are never returned to the OS; the allocator owns
// them until exit. On unix builds slabs come from anonymous private mappings,
// keeping them out of the Go heap entirely, which is what lets block metadata
// live inside the slab bytes without the garbage collector ever scanning it.
package osmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map obtains a fresh slab of exactly size bytes from the OS. The region is
// zero-filled and at least page aligned. Successive slabs may or may not be
// adjacent; callers must not assume either.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("osmem: invalid slab size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("osmem: mmap %d bytes: %w", size, err)
	}
	return data, nil
}
