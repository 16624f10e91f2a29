package engine

import (
	"maps"

	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/taskbar"
)

// State is the per-window mutable state shared by the engine's components.
// It is only touched from the event-loop goroutine.
type State struct {
	Mode mode.Mode
	Bar  taskbar.Visibility
	// LastOpaque is the most recent per-point opacity verdict under the
	// cursor. It is reported but nothing acts on it.
	LastOpaque *bool
	Cursor     *geometry.Point
	Tab        string
	DevTools   map[string]bool
}

// NewState returns the initial state: smart mode, bar hidden.
func NewState() *State {
	return &State{
		Mode:     mode.Smart,
		Bar:      taskbar.Hidden,
		DevTools: map[string]bool{},
	}
}

// Snapshot is a copy of the engine's observable state.
type Snapshot struct {
	Mode          mode.Mode       `json:"mode"`
	Description   string          `json:"description"`
	Bar           string          `json:"bar"`
	BarMounted    bool            `json:"bar_mounted"`
	HideDelayMS   int64           `json:"hide_delay_ms"`
	LastOpaque    *bool           `json:"last_opaque"`
	Cursor        *geometry.Point `json:"cursor,omitempty"`
	Tab           string          `json:"tab,omitempty"`
	DevTools      map[string]bool `json:"devtools"`
	ClientSize    geometry.Size   `json:"client_size"`
	Shape         []geometry.Rect `json:"shape"`
	Recomputes    uint64          `json:"recomputes"`
	LayoutVersion uint64          `json:"layout_version"`
}

func (s *State) copyInto(snap *Snapshot) {
	snap.Mode = s.Mode
	snap.Description = s.Mode.Description()
	snap.Bar = s.Bar.String()
	if s.LastOpaque != nil {
		v := *s.LastOpaque
		snap.LastOpaque = &v
	}
	if s.Cursor != nil {
		p := *s.Cursor
		snap.Cursor = &p
	}
	snap.Tab = s.Tab
	snap.DevTools = maps.Clone(s.DevTools)
	if snap.DevTools == nil {
		snap.DevTools = map[string]bool{}
	}
}
