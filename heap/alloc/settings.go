package alloc

import (
	"fmt"

	s "github.com/bnclabs/gosettings"
)

// Slabsize is the default usable payload of a fresh slab's spanning block.
// The actual region obtained from the OS is slightly larger: it also carries
// the block's own boundary tags and one fencepost at each end.
const Slabsize = int64(2 * 1024 * 1024)

// Allocator configurable parameters and default settings.
//
// "slabsize" (int64, default: 2MiB)
//
//	Usable bytes in a fresh slab. Must be a multiple of 8 and large
//	enough to hold one minimum block.
//
// "verbose" (bool, default: true)
//
//	Emit the statistics block when the exit hook runs. Overridden by
//	the MALLOCVERBOSE environment variable in the heap facade.
//
// "checks" (bool, default: false)
//
//	Enable metadata sanity checks. With checks on, a free of a block
//	that is not currently allocated panics instead of corrupting the
//	free list silently.
func Defaultsettings() s.Settings {
	return s.Settings{
		"slabsize": Slabsize,
		"verbose":  true,
		"checks":   false,
	}
}

func validateslabsize(slabsize int64) error {
	minimum := int64(8)
	if slabsize < minimum || slabsize%8 != 0 {
		return fmt.Errorf("%w: slabsize %v", ErrBadSettings, slabsize)
	}
	return nil
}
