// Package geometry holds the device-independent-pixel primitives shared by the
// shape pipeline and the window backends.
package geometry

import (
	"math"
	"slices"
)

// Rect is an axis-aligned rectangle in device-independent pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is a position relative to the window's top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a window client size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Box is an unrounded layout rectangle as reported by the content surface.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns width*height, or 0 for degenerate rectangles.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Within reports whether r lies entirely inside outer.
func (r Rect) Within(outer Rect) bool {
	return r.X >= outer.X && r.Y >= outer.Y && r.Right() <= outer.Right() && r.Bottom() <= outer.Bottom()
}

// Intersect returns the overlap of r and o. The result is empty when they do not touch.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// FullWindow returns the single rectangle covering a client area of size s.
func FullWindow(s Size) Rect { return Rect{Width: s.Width, Height: s.Height} }

// Empty reports whether the box covers no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Contains reports whether p lies inside b. Edges are inclusive.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Round snaps the box to whole pixels. Halves round up, matching how layout
// engines report client rects.
func (b Box) Round() Rect {
	return Rect{X: RoundHalfUp(b.X), Y: RoundHalfUp(b.Y), Width: RoundHalfUp(b.Width), Height: RoundHalfUp(b.Height)}
}

// RoundHalfUp rounds v to the nearest integer with .5 going towards +Inf.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// UnionArea returns the area covered by the union of rects.
// Overlaps are counted once. It is meant for small lists such as a window shape.
func UnionArea(rects []Rect) int {
	xs := make([]int, 0, len(rects)*2)
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		xs = append(xs, r.X, r.Right())
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)

	total := 0
	for i := 0; i+1 < len(xs); i++ {
		x0, x1 := xs[i], xs[i+1]
		var spans [][2]int
		for _, r := range rects {
			if r.Empty() || r.X > x0 || r.Right() < x1 {
				continue
			}
			spans = append(spans, [2]int{r.Y, r.Bottom()})
		}
		total += (x1 - x0) * coveredLength(spans)
	}
	return total
}

func coveredLength(spans [][2]int) int {
	if len(spans) == 0 {
		return 0
	}
	slices.SortFunc(spans, func(a, b [2]int) int { return a[0] - b[0] })
	covered := 0
	cur := spans[0]
	for _, s := range spans[1:] {
		if s[0] <= cur[1] {
			cur[1] = max(cur[1], s[1])
			continue
		}
		covered += cur[1] - cur[0]
		cur = s
	}
	return covered + cur[1] - cur[0]
}
