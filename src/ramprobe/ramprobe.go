// Package ramprobe models the two boot-time external collaborators
// spec.md §1 names but leaves unspecified: the RAM probe that reports
// the raw physical range available once the bootloader hands off to
// the kernel, and the memory stealer that bump-allocates frames from
// that range before the buddy allocator is online. Physical addresses
// in this hosted kernel are offsets into a single backing arena rather
// than real machine addresses, since there is no MMU to program.
package ramprobe

import "sync"

// Paddr is a 32-bit physical address, per spec.md §3.
type Paddr uint32

const pageSize = 1 << 12

var (
	mu       sync.Mutex
	arena    []byte
	lo, hi   Paddr
	steal    Paddr
	inited   bool
)

// Init seeds the simulated RAM range [lo, hi) with a freshly zeroed
// backing arena. It must be called exactly once before GetSize or
// StealMem are used; real firmware performs the analogous work before
// the kernel image even starts running.
func Init(loArg, hiArg Paddr) {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		panic("ramprobe: already initialized")
	}
	if loArg >= hiArg || Paddr(loArg)%pageSize != 0 || Paddr(hiArg)%pageSize != 0 {
		panic("ramprobe: bad range")
	}
	lo, hi = loArg, hiArg
	arena = make([]byte, hi-lo)
	// StealMem hands out frames from the top of RAM downward so that
	// it never collides with the buddy allocator's bootstrap block,
	// which starts at lo.
	steal = hi
	inited = true
}

// GetSize reports the physical range still available after boot,
// [lo, hi), where hi excludes every frame StealMem has handed out
// from the top of RAM.
func GetSize() (Paddr, Paddr) {
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		panic("ramprobe: not initialized")
	}
	return lo, steal
}

// StealMem bump-allocates n pages from the top of RAM and never frees
// them; it is the only allocation path available before the buddy
// allocator's bootstrap completes. It returns 0 on exhaustion.
func StealMem(n int) Paddr {
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		panic("ramprobe: not initialized")
	}
	need := Paddr(n * pageSize)
	if steal-lo < need {
		return 0
	}
	steal -= need
	return steal
}

// ResetForTest discards any existing simulated RAM and re-initializes
// it with a fresh [lo, hi) range. It exists only for tests, which
// each want a clean arena rather than the single-init discipline a
// real boot sequence follows.
func ResetForTest(loArg, hiArg Paddr) {
	mu.Lock()
	inited = false
	mu.Unlock()
	Init(loArg, hiArg)
}

// Bytes returns the backing slice for the physical range [p, p+n),
// standing in for the fixed-offset kernel-virtual direct map
// (spec.md §4.4): in this hosted kernel "mapping" a physical range
// into kernel-virtual space is just indexing into the single arena
// that represents all of RAM.
func Bytes(p Paddr, n int) []byte {
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		panic("ramprobe: not initialized")
	}
	off := p - lo
	return arena[off : off+Paddr(n)]
}
