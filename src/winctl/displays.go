package winctl

import (
	"github.com/kbinani/screenshot"

	"click-overlay/src/geometry"
)

// Display is one active monitor in virtual-screen coordinates.
type Display struct {
	Index   int           `json:"index"`
	Bounds  geometry.Rect `json:"bounds"`
	Primary bool          `json:"primary"`
}

// Displays lists the active displays. The first one reported by the system is
// the primary display.
func Displays() []Display {
	n := screenshot.NumActiveDisplays()
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		out = append(out, Display{
			Index:   i,
			Bounds:  geometry.Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()},
			Primary: i == 0,
		})
	}
	return out
}
