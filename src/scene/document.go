// Package scene models the rendered content surface the overlay shape is
// derived from: the elements, their layout boxes and resolved styles.
package scene

import (
	"strings"

	"click-overlay/src/geometry"
)

// Element is one rendered UI element.
type Element struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
	// Interactive carries the designated marker that declares the element a
	// candidate clickable surface.
	Interactive bool `json:"interactive"`
	// Root marks the document root, body or application root container. Roots
	// never count as opaque.
	Root bool `json:"root"`
	// Embedded is set when the element hosts embedded external content,
	// directly or through a descendant.
	Embedded bool         `json:"embedded"`
	Bounds   geometry.Box `json:"bounds"`
	Style    Style        `json:"style"`
}

// HostsEmbedded reports whether the element is or contains an embedded
// external content pane.
func (e Element) HostsEmbedded() bool {
	return e.Embedded || strings.EqualFold(e.Tag, "webview") || strings.EqualFold(e.Tag, "iframe")
}

// Layout is one complete snapshot of the content surface. Elements are listed
// in paint order: later elements are drawn on top of earlier ones.
type Layout struct {
	Viewport geometry.Size `json:"viewport"`
	Elements []Element     `json:"elements"`
}

// Document holds the latest layout plus visibility overrides applied by the
// engine itself (the control bar and its reveal handle). It is confined to the
// event-loop goroutine and is not safe for concurrent use.
type Document struct {
	layout    Layout
	index     map[string]int
	overrides map[string]bool
	version   uint64
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		index:     map[string]int{},
		overrides: map[string]bool{},
	}
}

// Replace installs a new layout snapshot. Visibility overrides survive.
func (d *Document) Replace(l Layout) {
	d.layout = Layout{Viewport: l.Viewport, Elements: append([]Element(nil), l.Elements...)}
	d.index = make(map[string]int, len(l.Elements))
	for i, el := range d.layout.Elements {
		if el.ID != "" {
			d.index[el.ID] = i
		}
	}
	d.version++
}

// Version increases on every change that can alter the shape.
func (d *Document) Version() uint64 { return d.version }

// Viewport returns the client size last reported by the content surface.
func (d *Document) Viewport() geometry.Size { return d.layout.Viewport }

// Mounted reports whether an element with id exists in the current layout.
func (d *Document) Mounted(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Element returns the element with id after overrides are applied.
func (d *Document) Element(id string) (Element, bool) {
	i, ok := d.index[id]
	if !ok {
		return Element{}, false
	}
	return d.resolve(d.layout.Elements[i]), true
}

// SetHidden forces the element with id hidden or shown regardless of what the
// content surface last reported.
func (d *Document) SetHidden(id string, hidden bool) {
	if cur, ok := d.overrides[id]; ok && cur == hidden {
		return
	}
	d.overrides[id] = hidden
	d.version++
}

// ClearOverride drops a visibility override for id.
func (d *Document) ClearOverride(id string) {
	if _, ok := d.overrides[id]; !ok {
		return
	}
	delete(d.overrides, id)
	d.version++
}

// Interactive returns every element carrying the interactive marker, in paint
// order, excluding roots.
func (d *Document) Interactive() []Element {
	var out []Element
	for _, el := range d.layout.Elements {
		if !el.Interactive || el.Root {
			continue
		}
		out = append(out, d.resolve(el))
	}
	return out
}

// StackAt returns the rendered elements under p, topmost first. Elements that
// are not rendered or do not take pointer events are not part of the stack.
func (d *Document) StackAt(p geometry.Point) []Element {
	var out []Element
	for i := len(d.layout.Elements) - 1; i >= 0; i-- {
		el := d.resolve(d.layout.Elements[i])
		if !el.Style.Visible() || el.Style.NoPointerEvents {
			continue
		}
		if el.Bounds.Contains(p) {
			out = append(out, el)
		}
	}
	return out
}

func (d *Document) resolve(el Element) Element {
	hidden, ok := d.overrides[el.ID]
	if !ok {
		return el
	}
	if hidden {
		el.Style.NotDisplayed = true
	} else {
		el.Style.NotDisplayed = false
		el.Style.Hidden = false
	}
	return el
}
