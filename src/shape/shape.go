// Package shape turns the interactive regions of the content surface into the
// rectangle list applied as the window's input shape.
package shape

import (
	"math"

	"click-overlay/src/geometry"
	"click-overlay/src/opacity"
	"click-overlay/src/scene"
)

// Extract walks every interactive region of doc and returns the rectangles
// approximating their opaque footprint, in enumeration order. The result is a
// pure function of the document: unchanged input yields an identical list.
func Extract(doc *scene.Document) []geometry.Rect {
	rects := []geometry.Rect{}
	for _, el := range doc.Interactive() {
		rects = append(rects, Region(el)...)
	}
	return rects
}

// Region returns the rectangles contributed by one interactive element: none
// when it is hidden, not opaque enough or has no area, one when its corners
// are square, three when they are rounded.
func Region(el scene.Element) []geometry.Rect {
	if !el.Style.Visible() {
		return nil
	}
	if !opacity.Classify(el).Opaque {
		return nil
	}
	b := el.Bounds.Round()
	if b.Empty() {
		return nil
	}
	return Decompose(b, el.Style.MaxRadius())
}

// Decompose approximates a rounded rectangle with at most three axis-aligned
// strips: a full-height center strip inset by r on both sides and two side
// strips of width r inset by r from top and bottom. The corner squares are
// left out, so the result never covers more than the rounded shape.
func Decompose(b geometry.Rect, radius float64) []geometry.Rect {
	r := EffectiveRadius(b, radius)
	if r <= 0 {
		return []geometry.Rect{b}
	}
	out := make([]geometry.Rect, 0, 3)
	add := func(rc geometry.Rect) {
		if !rc.Empty() {
			out = append(out, rc)
		}
	}
	add(geometry.Rect{X: b.X + r, Y: b.Y, Width: b.Width - 2*r, Height: b.Height})
	add(geometry.Rect{X: b.X, Y: b.Y + r, Width: r, Height: b.Height - 2*r})
	add(geometry.Rect{X: b.X + b.Width - r, Y: b.Y + r, Width: r, Height: b.Height - 2*r})
	return out
}

// EffectiveRadius clamps the largest corner radius to half the smaller side
// and snaps it to whole pixels.
func EffectiveRadius(b geometry.Rect, radius float64) int {
	r := math.Min(float64(b.Width)/2, math.Min(float64(b.Height)/2, radius))
	if r <= 0 {
		return 0
	}
	return geometry.RoundHalfUp(r)
}
