// Package vm implements the Address Space object (spec.md §4.2) and
// the Fault Handler (spec.md §4.3), colocated the way biscuit's vm
// package colocates Vm_t with Sys_pgfault: the fault handler is, in
// effect, the address space's translation behavior under a TLB miss.
package vm

import (
	"sync"

	"defs"
	"intr"
	"mem"
	"rand"
	"tlb"
	"util"
)

// Region constants (spec.md §6).
const (
	// UserBase is where the user code region conventionally begins;
	// load paths call DefineRegion with vaddr == UserBase for the
	// first code/data segment.
	UserBase  uint32 = 0x00400000
	stackLo   uint32 = 0x005c0000
	stackSpan uint32 = 0x7fa40000
	stackPages       = 12
)

// AddrSpace is a per-process address-space descriptor: two code/data
// regions plus a stack, all identity-offset mapped (spec.md §3).
type AddrSpace struct {
	mu sync.Mutex

	Vbase1, Pbase1 uint32
	Npages1        uint32
	Vbase2, Pbase2 uint32
	Npages2        uint32
	StackVbase     uint32
	StackPbase     uint32
}

// Create returns a zero-initialized address-space descriptor
// (spec.md §4.2).
func Create() *AddrSpace {
	return &AddrSpace{}
}

// Destroy frees the three physical ranges owned by as via the Frame
// Allocator (spec.md §4.2).
func Destroy(as *AddrSpace) {
	if as.Pbase1 != 0 {
		mem.FreeFrames(mem.Paddr(as.Pbase1))
	}
	if as.Pbase2 != 0 {
		mem.FreeFrames(mem.Paddr(as.Pbase2))
	}
	if as.StackPbase != 0 {
		mem.FreeFrames(mem.Paddr(as.StackPbase))
	}
}

// DefineRegion records a virtual region of the given size starting at
// vaddr, rounding outward to page boundaries, as region 1 if none is
// recorded yet, else as region 2, else it reports ETOOMANYREGIONS
// (spec.md §4.2). Protection flags r/w/x are accepted and ignored:
// every mapping this core installs is effectively rwx (spec.md §1
// Non-goals).
func DefineRegion(as *AddrSpace, vaddr, size uint32, r, w, x bool) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	size += vaddr % uint32(mem.PageSize)
	vaddr = util.Rounddown(vaddr, uint32(mem.PageSize))
	size = util.Roundup(size, uint32(mem.PageSize))
	npages := size / uint32(mem.PageSize)

	switch {
	case as.Vbase1 == 0:
		as.Vbase1 = vaddr
		as.Npages1 = npages
	case as.Vbase2 == 0:
		as.Vbase2 = vaddr
		as.Npages2 = npages
	default:
		return defs.ETOOMANYREGIONS
	}
	return 0
}

// PrepareLoad reserves physical frames for region 1, region 2 and the
// fixed 12-page stack (spec.md §4.2). Its precondition is that none of
// Pbase1, Pbase2, StackPbase are yet set. On failure it returns
// ENOMEM; earlier, already-reserved frames are intentionally not
// rolled back (spec.md §9) — Destroy will free whatever was recorded.
func PrepareLoad(as *AddrSpace) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.Pbase1 != 0 || as.Pbase2 != 0 || as.StackPbase != 0 {
		panic("vm: PrepareLoad called on an already-loaded address space")
	}

	p1 := mem.AllocFrames(int(as.Npages1))
	if p1 == 0 {
		return defs.ENOMEM
	}
	as.Pbase1 = uint32(p1)

	p2 := mem.AllocFrames(int(as.Npages2))
	if p2 == 0 {
		return defs.ENOMEM
	}
	as.Pbase2 = uint32(p2)

	ps := mem.AllocFrames(stackPages)
	if ps == 0 {
		return defs.ENOMEM
	}
	as.StackPbase = uint32(ps)

	return 0
}

// CompleteLoad is a hook reserved for future zero-on-load or
// protection installation (spec.md §4.2); it does nothing today.
func CompleteLoad(as *AddrSpace) {}

// DefineStack picks a randomized stack virtual base. Its precondition
// is that StackPbase is already set. It reads 4 bytes from the random
// device, reduces modulo 0x7fa40000, adds 0x005c0000, page-aligns,
// and records the result as StackVbase, returning the same value as
// the new stack pointer (spec.md §4.2). The resulting range can never
// collide with the code range starting at 0x00400000 or the kernel
// range at 0x80000000.
func DefineStack(as *AddrSpace) (uint32, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.StackPbase == 0 {
		panic("vm: DefineStack called before PrepareLoad")
	}

	r, err := rand.Read4()
	if err != nil {
		panic("vm: random device read failed: " + err.Error())
	}

	v := (r % stackSpan) + stackLo
	v &= mem.PageFrame
	as.StackVbase = v
	return v, 0
}

// Activate invalidates every TLB entry, exactly as spec.md §4.2
// describes: there are no address-space IDs, so every context switch
// must flush wholesale. The argument is accepted but unused, a
// forward-compatibility hook for a future ASID-aware implementation
// (spec.md §9 Open Question).
func Activate(as *AddrSpace) {
	s := intr.Splhigh()
	defer intr.Splx(s)
	tlb.InvalidateAll()
}

var (
	curMu sync.Mutex
	cur   *AddrSpace
)

// Current returns the address space bound to the currently executing
// thread, or nil if none is bound (spec.md §3 Active-Address-Space
// Pointer).
func Current() *AddrSpace {
	curMu.Lock()
	defer curMu.Unlock()
	return cur
}

// SetCurrent binds as as the active address space, standing in for
// curthread.t_vmspace.
func SetCurrent(as *AddrSpace) {
	curMu.Lock()
	cur = as
	curMu.Unlock()
}

// Copy allocates a fresh address space, copies the virtual layout of
// old, reserves fresh physical frames for it via PrepareLoad, and
// byte-copies each of the three physical ranges from old into the new
// space (spec.md §4.2). It returns ENOMEM if PrepareLoad fails on the
// new space.
func Copy(old *AddrSpace) (*AddrSpace, defs.Err_t) {
	old.mu.Lock()
	vbase1, npages1 := old.Vbase1, old.Npages1
	vbase2, npages2 := old.Vbase2, old.Npages2
	stackvbase := old.StackVbase
	pbase1, pbase2, stackpbase := old.Pbase1, old.Pbase2, old.StackPbase
	old.mu.Unlock()

	nw := Create()
	nw.Vbase1, nw.Npages1 = vbase1, npages1
	nw.Vbase2, nw.Npages2 = vbase2, npages2
	nw.StackVbase = stackvbase

	if err := PrepareLoad(nw); err != 0 {
		return nil, err
	}

	copyRange(pbase1, nw.Pbase1, int(npages1)*mem.PageSize)
	copyRange(pbase2, nw.Pbase2, int(npages2)*mem.PageSize)
	copyRange(stackpbase, nw.StackPbase, stackPages*mem.PageSize)

	return nw, 0
}

func copyRange(srcP, dstP uint32, n int) {
	src := mem.Dmap(mem.Paddr(srcP), n)
	dst := mem.Dmap(mem.Paddr(dstP), n)
	copy(dst, src)
}
