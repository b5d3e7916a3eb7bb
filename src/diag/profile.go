package diag

import (
	"io"

	"github.com/google/pprof/profile"

	"mem"
)

// FragmentationProfile encodes the free/in-use block sizes as a
// pprof profile, one sample per block with value = page count and a
// "state" label, so `go tool pprof` can be pointed at successive
// snapshots to watch fragmentation grow over a long-running session
// — the concrete tool spec.md §9's "no buddy coalescing" limitation
// calls for.
func FragmentationProfile(blocks []mem.BuddyBlock) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "pages", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "pages", Unit: "count"},
		Period:     1,
	}
	for _, b := range blocks {
		state := "free"
		if b.Inuse {
			state = "inuse"
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Value: []int64{int64(b.Pages)},
			Label: map[string][]string{"state": {state}},
		})
	}
	return p
}

// WriteProfile gzips and writes a fragmentation profile, matching
// profile.Profile's own Write contract.
func WriteProfile(w io.Writer, blocks []mem.BuddyBlock) error {
	return FragmentationProfile(blocks).Write(w)
}
