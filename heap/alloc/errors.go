package alloc

import "errors"

var (
	// ErrNoMemory indicates the OS refused to provide a fresh slab.
	ErrNoMemory = errors.New("alloc: out of memory")

	// ErrTooLarge indicates a single request exceeding a slab's usable
	// capacity. Oversized requests are rejected outright rather than
	// routed to a separate mapping path.
	ErrTooLarge = errors.New("alloc: request exceeds slab capacity")

	// ErrBadSettings indicates an invalid configuration map.
	ErrBadSettings = errors.New("alloc: bad settings")
)
