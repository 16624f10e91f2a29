package winctl

import (
	"math"

	"click-overlay/src/geometry"
)

// baseDPI is the DPI at which one device-independent pixel is one physical pixel.
const baseDPI = 96

func dpiScale(dpi uint32) float64 {
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / baseDPI
}

// toPhysical converts a DIP rectangle to physical pixels. Edges are rounded
// independently so adjacent rectangles stay adjacent.
func toPhysical(r geometry.Rect, scale float64) geometry.Rect {
	x0 := int(math.Round(float64(r.X) * scale))
	y0 := int(math.Round(float64(r.Y) * scale))
	x1 := int(math.Round(float64(r.Right()) * scale))
	y1 := int(math.Round(float64(r.Bottom()) * scale))
	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func toDIP(px int32, scale float64) float64 {
	return float64(px) / scale
}

func sizeToDIP(w, h int32, scale float64) geometry.Size {
	return geometry.Size{
		Width:  int(math.Round(float64(w) / scale)),
		Height: int(math.Round(float64(h) / scale)),
	}
}
