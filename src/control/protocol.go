// Package control is the overlay's loopback control channel. The content
// surface and the overlayctl CLI talk to the resident daemon over it with
// line-delimited JSON; a bare PING line doubles as single-instance detection.
package control

import (
	jsoniter "github.com/json-iterator/go"

	"click-overlay/src/engine"
	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/scene"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	// maxLine bounds one request line; layouts with many elements are large.
	maxLine = 4 << 20
)

// Request types.
const (
	TypeLayout         = "layout"
	TypePointer        = "pointer"
	TypePointerMove    = "pointer-move"
	TypeTab            = "tab"
	TypeDevToolsToggle = "devtools-toggle"
	TypeSetMode        = "set-mode"
	TypeSyncMode       = "sync-mode"
	TypeToggleMode     = "toggle-mode"
	TypeGetMode        = "get-mode"
	TypeRecompute      = "recompute"
	TypeState          = "state"
	TypeBar            = "bar"
	TypeSubscribe      = "subscribe"
)

// Values of Request.Target and Request.Event for TypePointer. Targets name
// the bar and handle roles; the element ids behind them are configurable.
const (
	PointerBar    = engine.PointerBar
	PointerHandle = engine.PointerHandle
	PointerEnter  = engine.PointerEnter
	PointerLeave  = engine.PointerLeave
)

// Request is one client line.
type Request struct {
	ID      int64       `json:"id"`
	Type    string      `json:"type"`
	Layout  *LayoutSpec `json:"layout,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Target  string      `json:"target,omitempty"`
	Event   string      `json:"event,omitempty"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
	Name    string      `json:"name,omitempty"`
	Mode    string      `json:"mode,omitempty"`
	Action  string      `json:"action,omitempty"`
	DelayMS int64       `json:"delay_ms,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	ID          int64            `json:"id"`
	OK          bool             `json:"ok"`
	Error       string           `json:"error,omitempty"`
	Mode        string           `json:"mode,omitempty"`
	Description string           `json:"description,omitempty"`
	Rects       []geometry.Rect  `json:"rects,omitempty"`
	Opaque      *bool            `json:"opaque,omitempty"`
	State       *engine.Snapshot `json:"state,omitempty"`
}

// Fail builds a rejection.
func Fail(err error) Response {
	return Response{Error: err.Error()}
}

// Notification is pushed to subscribed connections. It carries no id.
type Notification struct {
	Event       string          `json:"event"`
	Mode        string          `json:"mode,omitempty"`
	Description string          `json:"description,omitempty"`
	Bar         string          `json:"bar,omitempty"`
	Target      string          `json:"target,omitempty"`
	Open        *bool           `json:"open,omitempty"`
	Rects       []geometry.Rect `json:"rects,omitempty"`
	Trigger     string          `json:"trigger,omitempty"`
}

// NotificationFor converts an engine event to its wire form.
func NotificationFor(ev engine.Event) Notification {
	n := Notification{Event: string(ev.Kind)}
	switch ev.Kind {
	case engine.EventMode:
		n.Mode = ev.Mode.String()
		n.Description = ev.Mode.Description()
	case engine.EventBar:
		n.Bar = ev.Bar.String()
	case engine.EventDevTools:
		open := ev.Open
		n.Target, n.Open = ev.Target, &open
	case engine.EventShape:
		n.Rects = ev.Rects
		if n.Rects == nil {
			n.Rects = []geometry.Rect{}
		}
		n.Trigger = ev.Trigger
	}
	return n
}

// ModeResponse describes m the way get-mode reports it.
func ModeResponse(m mode.Mode) Response {
	return Response{OK: true, Mode: m.String(), Description: m.Description()}
}

// ElementSpec is an element as the content surface reports it: its box and
// its raw computed style properties.
type ElementSpec struct {
	ID          string            `json:"id"`
	Tag         string            `json:"tag,omitempty"`
	Interactive bool              `json:"interactive,omitempty"`
	Root        bool              `json:"root,omitempty"`
	Embedded    bool              `json:"embedded,omitempty"`
	Bounds      geometry.Box      `json:"bounds"`
	Style       map[string]string `json:"style,omitempty"`
}

// LayoutSpec is a full content snapshot on the wire.
type LayoutSpec struct {
	Viewport geometry.Size `json:"viewport"`
	Elements []ElementSpec `json:"elements"`
}

// Layout resolves the computed styles into a scene layout.
func (l LayoutSpec) Layout() scene.Layout {
	out := scene.Layout{Viewport: l.Viewport, Elements: make([]scene.Element, 0, len(l.Elements))}
	for _, e := range l.Elements {
		out.Elements = append(out.Elements, scene.Element{
			ID:          e.ID,
			Tag:         e.Tag,
			Interactive: e.Interactive,
			Root:        e.Root,
			Embedded:    e.Embedded,
			Bounds:      e.Bounds,
			Style:       scene.ParseComputedStyle(e.Style),
		})
	}
	return out
}
