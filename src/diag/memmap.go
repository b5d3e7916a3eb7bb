package diag

import (
	"github.com/fogleman/gg"

	"mem"
)

const (
	mapWidth  = 1024
	mapHeight = 64
)

// RenderMemoryMap draws the physical RAM range as a horizontal strip
// of rectangles, one per buddy block, sized proportionally to its
// page count and colored by free/in-use state, and saves it as a PNG
// at path — the textbook diagram a teaching VM course builds this
// kernel to produce.
func RenderMemoryMap(blocks []mem.BuddyBlock, path string) error {
	total := 0
	for _, b := range blocks {
		total += b.Pages
	}
	if total == 0 {
		total = 1
	}

	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	x := 0.0
	for _, b := range blocks {
		w := float64(b.Pages) / float64(total) * mapWidth
		if b.Inuse {
			dc.SetRGB(0.8, 0.3, 0.2)
		} else {
			dc.SetRGB(0.3, 0.6, 0.3)
		}
		dc.DrawRectangle(x, 0, w, mapHeight)
		dc.Fill()

		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(x, 0, w, mapHeight)
		dc.Stroke()

		x += w
	}

	return dc.SavePNG(path)
}
