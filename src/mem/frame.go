package mem

import (
	"fmt"
	"unsafe"

	"heap"
	"intr"
	"ramprobe"
	"util"
)

// buddylist is the unordered growable sequence of BuddyBlocks
// (spec.md §3). It is mutated only under the intr critical section,
// created once at bootstrap and never destroyed.
var buddylist = util.NewArray[BuddyBlock](64)

var initialized bool

// Bootstrap seeds the buddy list with one block covering the whole of
// the RAM range reported by ramprobe.GetSize, per spec.md §4.1. It
// must be called exactly once. Metadata allocation failure here is
// fatal, per spec.md §7.
func Bootstrap() {
	lo, hi := ramprobe.GetSize()
	fmt.Printf("memory after bootstraps:\nfirst: 0x%08x, last 0x%08x\n", lo, hi)

	if !pagealign(lo) || !pagealign(hi) {
		panic("mem: ram probe returned an unaligned range")
	}
	if heap.Kmalloc(int(unsafe.Sizeof(BuddyBlock{}))) == nil {
		panic("mem: kmalloc failed during bootstrap")
	}

	s := intr.Splhigh()
	defer intr.Splx(s)

	pages := int((hi - lo) / Paddr(PageSize))
	buddylist.Append(BuddyBlock{Paddr: lo, Pages: pages, Inuse: false})
	initialized = true

	fmt.Printf("initialized vm with one buddy @ 0x%08x with %d pages\n", lo, pages)
}

// Initialized reports whether Bootstrap has completed. AllocFrames
// uses it to route pre-bootstrap requests to ramprobe.StealMem.
func Initialized() bool {
	return initialized
}

// AllocFrames returns a page-aligned physical address that is the
// base of a contiguous run of at least n pages, marked in-use, or 0
// on out-of-memory (spec.md §4.1). Before Bootstrap runs, it
// delegates to the boot-time memory stealer.
func AllocFrames(n int) Paddr {
	if n <= 0 {
		panic("mem: AllocFrames needs a positive page count")
	}
	if !initialized {
		return ramprobe.StealMem(n)
	}

	s := intr.Splhigh()
	defer intr.Splx(s)
	return allocLocked(n)
}

// best-fit scan: the block with the smallest Pages value among free
// blocks whose Pages >= n, ties broken by first occurrence
// (spec.md §4.1 step 1).
func allocLocked(n int) Paddr {
	best := -1
	for i := 0; i < buddylist.Len(); i++ {
		b := buddylist.At(i)
		if b.Inuse || b.Pages < n {
			continue
		}
		if best == -1 || b.Pages < buddylist.At(best).Pages {
			best = i
		}
	}
	if best == -1 {
		return 0
	}

	// repeatedly split while floor(pages/2) >= n (spec.md §4.1 step 2)
	for {
		b := *buddylist.At(best)
		half := b.Pages / 2
		if half < n {
			break
		}
		left := BuddyBlock{Paddr: b.Paddr, Pages: half, Inuse: false}
		right := BuddyBlock{
			Paddr: b.Paddr + Paddr(half*PageSize),
			Pages: b.Pages - half,
			Inuse: false,
		}
		if heap.Kmalloc(int(unsafe.Sizeof(BuddyBlock{}))) == nil {
			panic("mem: kmalloc failed during buddy split")
		}
		buddylist.Set(best, left)
		buddylist.Append(right)
	}

	chosen := buddylist.At(best)
	chosen.Inuse = true
	return chosen.Paddr
}

// FreeFrames marks the buddy block whose base equals paddr as
// not-in-use. A base that matches no block is silently ignored
// (spec.md §4.1). No coalescing with siblings is performed (spec.md
// §9, a deliberate simplification).
func FreeFrames(paddr Paddr) {
	s := intr.Splhigh()
	defer intr.Splx(s)

	buddylist.Each(func(i int, b *BuddyBlock) {
		if b.Paddr == paddr {
			b.Inuse = false
		}
	})
}

// Snapshot returns a copy of the current buddy list for diagnostics
// and tests (spec.md §6 fault-outside-all-regions dump, and the
// invariants in spec.md §8). It takes the critical section so the
// snapshot is internally consistent.
func Snapshot() []BuddyBlock {
	s := intr.Splhigh()
	defer intr.Splx(s)

	out := make([]BuddyBlock, buddylist.Len())
	buddylist.Each(func(i int, b *BuddyBlock) {
		out[i] = *b
	})
	return out
}
