// Package intr stands in for the interrupt-priority primitive a real
// kernel uses to create a critical section on a uniprocessor: raise
// the interrupt priority level on entry, restore the previous level
// on every exit path. There is no interrupt controller to program in
// a hosted Go process, so the critical section is backed directly by
// a mutex. The primitive is not reentrant: a goroutine that already
// holds the section must not call Splhigh again before calling Splx,
// the same way a real CPU must not re-raise an already-raised IPL
// without lowering it first.
package intr

import "sync"

var mu sync.Mutex

// Splhigh raises the interrupt priority level to its highest value
// and returns the previous level (always 0, since nesting is not
// supported). Callers must pass the returned value to Splx on every
// exit path, including error paths.
func Splhigh() int {
	mu.Lock()
	return 0
}

// Splx restores the interrupt priority level to prev, releasing the
// mutex acquired by the matching Splhigh.
func Splx(prev int) {
	_ = prev
	mu.Unlock()
}
