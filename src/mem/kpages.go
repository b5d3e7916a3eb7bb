package mem

import "ramprobe"

// AllocKpages returns the kernel-virtual address corresponding to the
// physical base returned by AllocFrames(n), or 0 if allocation failed
// (spec.md §4.4). Translation is a fixed offset between kernel-
// virtual and physical spaces.
func AllocKpages(n int) uint32 {
	p := AllocFrames(n)
	if p == 0 {
		return 0
	}
	return KernBase + uint32(p)
}

// FreeKpages translates kvaddr back to a physical address and calls
// FreeFrames (spec.md §4.4).
func FreeKpages(kvaddr uint32) {
	FreeFrames(Paddr(kvaddr - KernBase))
}

// Dmap returns a byte-slice window over the physical range [p, p+n),
// the kernel-virtual direct map a real kernel would provide (spec.md
// §4.4). It is used by package vm to copy address-space content
// during vm.Copy.
func Dmap(p Paddr, n int) []byte {
	return ramprobe.Bytes(p, n)
}
