// Package opacity decides whether rendered elements are solid enough to take
// pointer input. The decision is binary: native window shapes cannot express
// partially transparent input.
package opacity

import (
	"click-overlay/src/geometry"
	"click-overlay/src/scene"
)

// AlphaThreshold is the minimum alpha at which any visual signal (element
// opacity, fill, border) counts as solid.
const AlphaThreshold = 0.5

// Verdict is the classifier result for one element.
type Verdict struct {
	Opaque bool `json:"opaque"`
}

// Classify applies the opacity rules to a single element, in order:
// not rendered, element opacity below threshold, embedded content, image
// fill, then fill alpha or any bordered edge whose color reaches the threshold.
func Classify(el scene.Element) Verdict {
	st := el.Style
	if !st.Visible() {
		return Verdict{}
	}
	if st.Opacity < AlphaThreshold {
		return Verdict{}
	}
	if el.HostsEmbedded() {
		return Verdict{Opaque: true}
	}
	if st.BackgroundImage {
		return Verdict{Opaque: true}
	}
	if st.BackgroundAlpha >= AlphaThreshold {
		return Verdict{Opaque: true}
	}
	for _, b := range st.Borders {
		if b.Width > 0 && b.Alpha >= AlphaThreshold {
			return Verdict{Opaque: true}
		}
	}
	return Verdict{}
}

// InInteractiveBox reports whether p falls inside the bounding box of any
// interactive element that can currently receive pointer input.
func InInteractiveBox(doc *scene.Document, p geometry.Point) bool {
	for _, el := range doc.Interactive() {
		st := el.Style
		if !st.Visible() || st.NoPointerEvents || st.Opacity == 0 {
			continue
		}
		if el.Bounds.Empty() {
			continue
		}
		if el.Bounds.Contains(p) {
			return true
		}
	}
	return false
}

// OpaqueAtPoint is the per-point test used for cursor observability. A hit on
// an interactive element's box wins regardless of its alpha. Otherwise the
// rendered stack under p is walked top down.
func OpaqueAtPoint(doc *scene.Document, p geometry.Point) bool {
	if InInteractiveBox(doc, p) {
		return true
	}
	stack := doc.StackAt(p)
	for _, el := range stack {
		if el.HostsEmbedded() {
			return true
		}
	}
	for _, el := range stack {
		if el.Root {
			continue
		}
		if Classify(el).Opaque {
			return true
		}
	}
	return false
}
