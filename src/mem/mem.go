// Package mem implements the Frame Allocator (spec.md §4.1) and the
// Kernel-page helpers (spec.md §4.4): a buddy-system physical frame
// allocator and the thin translation layer that routes kernel-side
// page allocations through it. The two are colocated in one package,
// the way biscuit's mem package colocates its physical allocator with
// the kernel/physical address translation helpers in dmap.go.
package mem

import (
	"ramprobe"
)

// Paddr is a physical address (spec.md §3).
type Paddr = ramprobe.Paddr

const (
	// PageShift is the base-2 exponent of the page size.
	PageShift uint = 12
	// PageSize is the size of a single page in bytes.
	PageSize int = 1 << PageShift
	// PageFrame masks the page number of an address, complementing
	// the page offset (spec.md §6).
	PageFrame uint32 = ^uint32(PageSize - 1)
	// KernBase is the start of the kernel virtual range (spec.md §6).
	KernBase uint32 = 0x80000000
)

// pagealign reports whether addr is a multiple of PageSize.
func pagealign(addr Paddr) bool {
	return uint32(addr)%uint32(PageSize) == 0
}

// BuddyBlock is a contiguous, page-aligned run of physical pages
// tracked as a single free/in-use unit (spec.md §3).
type BuddyBlock struct {
	Paddr Paddr
	Pages int
	Inuse bool
}
