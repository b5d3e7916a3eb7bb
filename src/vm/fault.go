package vm

import (
	"os"
	"sync"

	"defs"
	"diag"
	"intr"
	"mem"
	"tlb"
)

// FaultKind classifies a TLB-miss trap (spec.md §4.3).
type FaultKind int

const (
	// ReadOnly faults are impossible under this core: no mapping is
	// ever installed read-only (spec.md §1 Non-goals). Encountering
	// one is fatal.
	ReadOnly FaultKind = iota
	Read
	Write
)

var (
	victimMu sync.Mutex
	victim   int
)

// Fault resolves a TLB miss for faultaddr against the address space
// currently bound by SetCurrent, installing a TLB entry on success
// (spec.md §4.3). Address resolution and TLB installation run under
// the critical section (spec.md §5); the buddy-list dump for an
// unmapped address is written after the section is released.
func Fault(kind FaultKind, faultaddr uint32) defs.Err_t {
	if kind == ReadOnly {
		panic("vm: got a READONLY fault, which this core never installs")
	}
	if kind != Read && kind != Write {
		return defs.EINVAL
	}

	// Deferred before Splhigh so it runs after the deferred Splx:
	// mem.Snapshot takes the (non-reentrant) section itself.
	dump := false
	defer func() {
		if dump {
			diag.DumpTable(os.Stderr, mem.Snapshot())
		}
	}()

	s := intr.Splhigh()
	defer intr.Splx(s)

	as := Current()
	if as == nil {
		return defs.EFAULT
	}

	va := faultaddr & mem.PageFrame
	pa, ok := translate(as, va)
	if !ok {
		// spec.md §6: a fault outside every region dumps the buddy
		// list, the same diagnostic dumbvm.c prints from vm_fault's
		// unmapped-address branch via buddylist_printstats().
		dump = true
		return defs.EFAULT
	}

	installTLB(va, pa)
	return 0
}

// translate resolves va against as's two regions and its stack,
// exactly as spec.md §4.3's table describes.
func translate(as *AddrSpace, va uint32) (uint32, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.Npages1 > 0 && inRange(va, as.Vbase1, as.Npages1) {
		return va - as.Vbase1 + as.Pbase1, true
	}
	if as.Npages2 > 0 && inRange(va, as.Vbase2, as.Npages2) {
		return va - as.Vbase2 + as.Pbase2, true
	}
	if as.StackVbase != 0 {
		stackBase := as.StackVbase - stackPages*uint32(mem.PageSize)
		if inRange(va, stackBase, stackPages) {
			return va - stackBase + as.StackPbase, true
		}
	}
	return 0, false
}

func inRange(va, base uint32, npages uint32) bool {
	span := npages * uint32(mem.PageSize)
	return va >= base && va < base+span
}

// installTLB scans the 64 TLB slots for the first invalid one and
// installs ehi=va, elo=pa|DIRTY|VALID there (spec.md §4.3). Per
// REDESIGN FLAGS (SPEC_FULL.md §9), when every slot is already valid
// this core evicts round-robin instead of giving up, advancing a
// package-level cursor on every call so repeated faults eventually
// cycle through the whole table.
func installTLB(va, pa uint32) {
	victimMu.Lock()
	defer victimMu.Unlock()

	slot := -1
	for i := 0; i < tlb.NumTLB; i++ {
		_, elo := tlb.Read(i)
		if elo&tlb.LoValid == 0 {
			slot = i
			break
		}
	}
	if slot == -1 {
		slot = victim
	}
	victim = (victim + 1) % tlb.NumTLB

	tlb.Write(slot, va, pa|tlb.LoDirty|tlb.LoValid)
}
