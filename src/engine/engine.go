// Package engine owns one overlay window's interaction state and keeps the
// window's input shape in step with the content surface. Every method runs on
// the event-loop goroutine; window calls are handed to a Window that performs
// them asynchronously.
package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/opacity"
	"click-overlay/src/scene"
	"click-overlay/src/shape"
	"click-overlay/src/taskbar"
	"click-overlay/src/worker"
)

const (
	DefaultBarID    = "taskbar"
	DefaultHandleID = "handle"
)

// Recomputation triggers.
const (
	TriggerLayout   = "layout"
	TriggerResize   = "resize"
	TriggerTab      = "tab"
	TriggerDevTools = "devtools"
	TriggerMode     = "mode"
	TriggerModeSync = "mode-sync"
	TriggerBar      = "bar"
	TriggerManual   = "manual"
)

// Pointer targets and events reported by the content surface. These name the
// roles of the two elements, not their element ids (BarID, HandleID).
const (
	PointerBar    = "bar"
	PointerHandle = "handle"
	PointerEnter  = "enter"
	PointerLeave  = "leave"
)

var (
	ErrUnknownPointer   = errors.New("unknown pointer target or event")
	ErrUnknownBarAction = errors.New("unknown control bar action")
)

// Window is the asynchronous side of the window controller. Calls return
// immediately; worker.Dispatcher is the production implementation.
type Window interface {
	ApplyShape(rects []geometry.Rect)
	ClearShape()
	SetIgnoreInput(ignore, forward bool)
	ToggleDevTools(target string, cb worker.ToggleCallback)
}

// Sampler is the cursor feedback loop's on/off switch.
type Sampler interface {
	SetEnabled(on bool)
}

// EventKind names a notification pushed to the content surface.
type EventKind string

const (
	EventMode     EventKind = "mode"
	EventBar      EventKind = "bar"
	EventDevTools EventKind = "devtools"
	EventShape    EventKind = "shape"
)

// Event is a state change worth telling the content surface about.
type Event struct {
	Kind    EventKind
	Mode    mode.Mode
	Bar     taskbar.Visibility
	Target  string
	Open    bool
	Rects   []geometry.Rect
	Trigger string
}

// Options configures an Engine. Window is required.
type Options struct {
	Window  Window
	State   *State
	Sampler Sampler
	Clock   clockwork.Clock
	// Post schedules fn on the event-loop goroutine. Asynchronous results
	// (timer expiry, devtools toggles) come back through it.
	Post      func(fn func())
	HideDelay time.Duration
	BarID     string
	HandleID  string
	Notify    func(Event)
	Logger    *zap.Logger
}

// Engine is the overlay's controller.
type Engine struct {
	win     Window
	state   *State
	doc     *scene.Document
	bar     *taskbar.Scheduler
	sampler Sampler
	post    func(func())
	notify  func(Event)
	log     *zap.Logger

	barID    string
	handleID string

	size       geometry.Size
	shape      []geometry.Rect
	recomputes uint64
}

// New returns an engine in the state carried by opts.State, or the initial
// state when nil.
func New(opts Options) *Engine {
	e := &Engine{
		win:      opts.Window,
		state:    opts.State,
		doc:      scene.NewDocument(),
		sampler:  opts.Sampler,
		post:     opts.Post,
		notify:   opts.Notify,
		log:      opts.Logger,
		barID:    opts.BarID,
		handleID: opts.HandleID,
		shape:    []geometry.Rect{},
	}
	if e.state == nil {
		e.state = NewState()
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.post == nil {
		e.post = func(fn func()) { fn() }
	}
	if e.notify == nil {
		e.notify = func(Event) {}
	}
	if e.barID == "" {
		e.barID = DefaultBarID
	}
	if e.handleID == "" {
		e.handleID = DefaultHandleID
	}
	e.bar = taskbar.New(taskbar.Options{
		Clock:    opts.Clock,
		Delay:    opts.HideDelay,
		Post:     e.post,
		OnChange: e.barChanged,
		Logger:   e.log.Named("taskbar"),
	})
	return e
}

// Mode returns the current interaction mode.
func (e *Engine) Mode() mode.Mode { return e.state.Mode }

// Bar exposes the control bar scheduler.
func (e *Engine) Bar() *taskbar.Scheduler { return e.bar }

// Shape returns the rectangles most recently applied.
func (e *Engine) Shape() []geometry.Rect { return slices.Clone(e.shape) }

// ClientSize returns the window client size used for full capture.
func (e *Engine) ClientSize() geometry.Size { return e.size }

// SetClientSize records the window's client size and reports whether it
// changed.
func (e *Engine) SetClientSize(s geometry.Size) bool {
	if s == e.size {
		return false
	}
	e.size = s
	return true
}

// ReplaceLayout installs a new content snapshot and recomputes the shape. The
// control bar is mounted the first time both the bar and its handle appear.
func (e *Engine) ReplaceLayout(l scene.Layout, trigger string) []geometry.Rect {
	e.doc.Replace(l)
	if l.Viewport.Width > 0 && l.Viewport.Height > 0 {
		e.SetClientSize(l.Viewport)
	}
	if !e.bar.Mounted() && e.doc.Mounted(e.barID) && e.doc.Mounted(e.handleID) {
		e.bar.Mount()
	}
	e.syncBarOverride()
	if trigger == "" {
		trigger = TriggerLayout
	}
	return e.RecomputeShape(trigger)
}

// RecomputeShape derives the shape from the current state, hands it to the
// window and returns it. In full capture the content is ignored and the shape
// is the whole client area; while that size is still unknown the explicit
// shape is cleared instead, which leaves the whole window hit-testable.
func (e *Engine) RecomputeShape(trigger string) []geometry.Rect {
	var rects []geometry.Rect
	switch {
	case e.state.Mode == mode.FullCapture && (e.size.Width <= 0 || e.size.Height <= 0):
		e.win.ClearShape()
	case e.state.Mode == mode.FullCapture:
		rects = []geometry.Rect{geometry.FullWindow(e.size)}
		e.win.ApplyShape(rects)
	default:
		rects = shape.Extract(e.doc)
		e.win.ApplyShape(rects)
	}
	e.shape = rects
	e.recomputes++
	e.log.Debug("shape recomputed",
		zap.String("trigger", trigger),
		zap.Stringer("mode", e.state.Mode),
		zap.Int("rects", len(rects)))
	e.notify(Event{Kind: EventShape, Rects: slices.Clone(rects), Trigger: trigger})
	return slices.Clone(rects)
}

// SetMode switches the interaction mode. Re-entering smart mode recomputes;
// re-entering full capture does nothing. Unknown modes are rejected and leave
// the state untouched.
func (e *Engine) SetMode(m mode.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("set mode %d: %w", int(m), mode.ErrUnknownMode)
	}
	prev := e.state.Mode
	if m == prev {
		if m == mode.Smart {
			e.RecomputeShape(TriggerMode)
		}
		return nil
	}
	e.state.Mode = m
	e.win.SetIgnoreInput(false, false)
	if m == mode.Smart {
		e.win.ClearShape()
	}
	e.setSampling(m == mode.Smart)
	e.log.Info("interaction mode changed", zap.Stringer("from", prev), zap.Stringer("to", m))
	e.notify(Event{Kind: EventMode, Mode: m})
	e.RecomputeShape(TriggerMode)
	return nil
}

// ToggleMode flips between smart and full capture and returns the new mode.
func (e *Engine) ToggleMode() mode.Mode {
	next := e.state.Mode.Toggle()
	// Toggle always yields a valid mode.
	_ = e.SetMode(next)
	return next
}

// SyncMode adopts a mode change made elsewhere, typically by the window
// controller itself, and recomputes right away without touching the window's
// input flags.
func (e *Engine) SyncMode(m mode.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("sync mode %d: %w", int(m), mode.ErrUnknownMode)
	}
	if m != e.state.Mode {
		e.state.Mode = m
		e.setSampling(m == mode.Smart)
		e.notify(Event{Kind: EventMode, Mode: m})
	}
	e.RecomputeShape(TriggerModeSync)
	return nil
}

func (e *Engine) setSampling(on bool) {
	if e.sampler != nil {
		e.sampler.SetEnabled(on)
	}
}

// ObserveCursor records a cursor sample and the opacity under it. It reports
// the verdict and whether it differs from the previous one. Samples are
// ignored in full capture.
func (e *Engine) ObserveCursor(p geometry.Point) (opaque, changed bool) {
	if e.state.Mode == mode.FullCapture {
		return false, false
	}
	e.state.Cursor = &p
	opaque = opacity.OpaqueAtPoint(e.doc, p)
	if e.state.LastOpaque != nil && *e.state.LastOpaque == opaque {
		return opaque, false
	}
	e.state.LastOpaque = &opaque
	e.log.Debug("opacity under cursor changed",
		zap.Bool("opaque", opaque), zap.Float64("x", p.X), zap.Float64("y", p.Y))
	return opaque, true
}

// SelectTab records the content surface's active tab and recomputes.
func (e *Engine) SelectTab(name string) []geometry.Rect {
	e.state.Tab = name
	return e.RecomputeShape(TriggerTab)
}

// ToggleDevTools asks the window controller to flip the inspector for
// target. The result is applied once the controller answers.
func (e *Engine) ToggleDevTools(target string) {
	e.win.ToggleDevTools(target, func(open bool, err error) {
		e.post(func() { e.devToolsToggled(target, open, err) })
	})
}

func (e *Engine) devToolsToggled(target string, open bool, err error) {
	if err != nil {
		e.log.Warn("devtools toggle failed", zap.String("target", target), zap.Error(err))
		return
	}
	e.state.DevTools[target] = open
	e.notify(Event{Kind: EventDevTools, Target: target, Open: open})
	e.RecomputeShape(TriggerDevTools)
}

// PointerEvent routes enter/leave events on the bar or its handle into the
// control bar scheduler.
func (e *Engine) PointerEvent(target, event string) error {
	switch {
	case target == PointerHandle && event == PointerEnter:
		e.bar.HandleEnter()
	case target == PointerHandle && event == PointerLeave:
	case target == PointerBar && event == PointerEnter:
		e.bar.BarEnter()
	case target == PointerBar && event == PointerLeave:
		e.bar.BarLeave()
	default:
		return fmt.Errorf("%s %s: %w", target, event, ErrUnknownPointer)
	}
	return nil
}

// BarAction runs an explicit control bar command. A positive delay changes
// the auto-hide delay first. An empty action only applies the delay.
func (e *Engine) BarAction(action string, delay time.Duration) error {
	switch action {
	case "", "show", "hide", "toggle":
	default:
		return fmt.Errorf("%q: %w", action, ErrUnknownBarAction)
	}
	if delay > 0 {
		e.bar.SetHideDelay(delay)
	}
	switch action {
	case "show":
		e.bar.Show()
	case "hide":
		e.bar.Hide()
	case "toggle":
		e.bar.Toggle()
	}
	return nil
}

func (e *Engine) barChanged(v taskbar.Visibility) {
	e.state.Bar = v
	e.syncBarOverride()
	e.notify(Event{Kind: EventBar, Bar: v})
	e.RecomputeShape(TriggerBar)
}

// syncBarOverride makes the document agree with the scheduler: the bar and
// its reveal handle are never visible at the same time.
func (e *Engine) syncBarOverride() {
	if e.bar.Mounted() {
		e.doc.SetHidden(e.barID, e.bar.Hidden())
		e.doc.SetHidden(e.handleID, !e.bar.Hidden())
	}
}

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		BarMounted:    e.bar.Mounted(),
		HideDelayMS:   e.bar.Delay().Milliseconds(),
		ClientSize:    e.size,
		Shape:         slices.Clone(e.shape),
		Recomputes:    e.recomputes,
		LayoutVersion: e.doc.Version(),
	}
	e.state.copyInto(&snap)
	return snap
}

// Close stops the control bar timer. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.bar.Close()
}
