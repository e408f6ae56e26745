// Package layout defines the on-memory representation of heap blocks and the
// pointer arithmetic for navigating between them. The goal is to keep the
// raw-memory handling in one place, allocation-free, and independent from the
// allocation policy so the engine in heap/alloc can stay focused on search,
// split and coalesce decisions.
//
// A block is a contiguous run of bytes shaped as
//
//	| Header | payload ... | Footer |
//
// Header and Footer are symmetric boundary tags: both record the block's
// total size (header + payload + footer) and its status. The footer exists so
// that a block's predecessor can be located in O(1) from the block's own
// header, and the header so that the successor can.
//
// Records are overlaid onto slab memory with unsafe pointer casts. The bytes
// they occupy are handed to callers as payload once a block is allocated, so
// nothing here may assume exclusive or typed access to them.
package layout

import "unsafe"

// Status classifies a block record.
type Status uint32

const (
	// statusNone is deliberately unused so that a zeroed record is
	// recognisable as corrupt rather than as a valid block.
	statusNone Status = iota

	// Allocated marks a block handed out to a caller, and also every
	// fencepost (a fencepost is permanently allocated, size zero).
	Allocated

	// Unallocated marks a block currently on the free list.
	Unallocated

	// Sentinel marks the free list's anchor node. It never appears inside
	// slab memory.
	Sentinel
)

// Header is the record at the start of every block. Next and Prev are the
// free-list links; they are meaningful only while Status is Unallocated (or
// Sentinel, for the anchor) and are plain payload bytes otherwise.
type Header struct {
	Size   uint64
	Status Status
	_      uint32
	Next   *Header
	Prev   *Header
}

// Footer is the record at the end of every block. Its field layout matches
// the first 16 bytes of Header, so a record of unknown kind (real header or
// end fencepost) can be classified by reading Size and Status alone.
type Footer struct {
	Size   uint64
	Status Status
	_      uint32
}

const (
	// HeaderSize and FooterSize are the record sizes in bytes. Both are
	// multiples of Alignment by construction.
	HeaderSize = int(unsafe.Sizeof(Header{}))
	FooterSize = int(unsafe.Sizeof(Footer{}))

	// Overhead is the per-block metadata cost.
	Overhead = HeaderSize + FooterSize

	// Alignment is the grain of all block sizes and payload addresses.
	Alignment = 8

	// MinPayload is the smallest payload capacity a block may have.
	// Requests below it are rounded up; splits that would leave less than
	// this are not performed.
	MinPayload = 8
)

// FromPayload recovers a block's header from the payload address previously
// returned to a caller.
func FromPayload(p unsafe.Pointer) *Header {
	return (*Header)(unsafe.Add(p, -HeaderSize))
}

// Payload returns the user-visible region of the block.
func (h *Header) Payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), HeaderSize)
}

// PayloadSize returns the usable capacity of the block.
func (h *Header) PayloadSize() int {
	return int(h.Size) - Overhead
}

// Footer returns the block's footer, located Size bytes past the header
// minus the footer record itself.
func (h *Header) Footer() *Footer {
	return (*Footer)(unsafe.Add(unsafe.Pointer(h), int(h.Size)-FooterSize))
}

// NextBlock returns the record immediately after this block.
//
// The result may be an end fencepost rather than a real header. A fencepost
// is only FooterSize bytes long, so callers must classify the record (see
// IsFencepost) before touching anything beyond Size and Status.
func (h *Header) NextBlock() *Header {
	return (*Header)(unsafe.Add(unsafe.Pointer(h), int(h.Size)))
}

// PrevFooter returns the footer of the record immediately before this block.
// If the block is the first in its slab that record is the start fencepost.
func (h *Header) PrevFooter() *Footer {
	return (*Footer)(unsafe.Add(unsafe.Pointer(h), -FooterSize))
}

// PrevBlock returns the header of the block before this one. It must not be
// called when PrevFooter reports a fencepost; there is no previous block
// then.
func (h *Header) PrevBlock() *Header {
	f := h.PrevFooter()
	return (*Header)(unsafe.Add(unsafe.Pointer(h), -int(f.Size)))
}

// IsFencepost reports whether a header-read record is actually a slab
// boundary marker.
func (h *Header) IsFencepost() bool {
	return h.Size == 0 && h.Status == Allocated
}

// IsFencepost reports whether the footer is a slab boundary marker.
func (f *Footer) IsFencepost() bool {
	return f.Size == 0 && f.Status == Allocated
}

// Stamp writes size and status into the header and its matching footer. The
// footer position is derived from the new size, so the caller must ensure
// the block really extends that far.
func (h *Header) Stamp(size uint64, st Status) {
	h.Size = size
	h.Status = st
	f := h.Footer()
	f.Size = size
	f.Status = st
}

// SlabSpan returns the number of bytes a slab must occupy so that its
// spanning block offers exactly payload usable bytes: the block's own
// overhead plus one fencepost at each end.
func SlabSpan(payload int) int {
	return payload + Overhead + 2*FooterSize
}

// FormatSlab writes a start fencepost, one spanning unallocated block and an
// end fencepost into a fresh slab, and returns the spanning block's header.
// len(base) must be a multiple of Alignment and large enough for the three
// records plus MinPayload.
func FormatSlab(base []byte) *Header {
	start := (*Footer)(unsafe.Pointer(&base[0]))
	start.Size = 0
	start.Status = Allocated

	end := (*Footer)(unsafe.Pointer(&base[len(base)-FooterSize]))
	end.Size = 0
	end.Status = Allocated

	h := (*Header)(unsafe.Pointer(&base[FooterSize]))
	h.Next = nil
	h.Prev = nil
	h.Stamp(uint64(len(base)-2*FooterSize), Unallocated)
	return h
}
