// Package diag renders the buddy allocator's state for humans: the
// fault-outside-all-regions dump table spec.md §6 calls for, a
// pprof-compatible fragmentation profile, and a PNG memory-map render
// for the textbook diagrams this teaching kernel is meant to produce
// (SPEC_FULL.md §4.6).
package diag

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mem"
)

// DumpTable writes the buddy list as a table, grouping byte counts
// with a golang.org/x/text/message printer (1,048,576 rather than
// 1048576) instead of hand-rolled digit grouping.
func DumpTable(w io.Writer, blocks []mem.BuddyBlock) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%-12s %-14s %-10s\n", "paddr", "bytes", "state")
	for _, b := range blocks {
		state := "free"
		if b.Inuse {
			state = "inuse"
		}
		p.Fprintf(w, "0x%08x   %d   %s\n", b.Paddr, b.Pages*mem.PageSize, state)
	}
}
