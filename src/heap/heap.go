// Package heap is the byte-granularity kernel allocator used for the
// frame allocator's bookkeeping. Address-space descriptors are not
// allocated through it: vm.Create uses Go's own allocation. It is an
// external collaborator of the core (spec.md §1): the core only ever
// calls Kmalloc/Kfree and never inspects how memory is actually
// obtained. This hosted implementation routes through Go's own
// allocator and therefore never fails; the call sites in mem still
// check the result and panic, preserving the shape callers
// would need against a bounded-heap implementation of this package.
package heap

import "unsafe"

// Kmalloc allocates size bytes and returns a pointer to the first
// byte, or nil if size is not positive.
func Kmalloc(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0])
}

// Kfree releases memory previously returned by Kmalloc. The hosted
// implementation relies on the garbage collector and is a no-op; it
// exists so call sites mirror the free-after-use discipline of the
// kernel this package imitates.
func Kfree(p unsafe.Pointer) {
	_ = p
}
