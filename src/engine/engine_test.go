package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/scene"
	"click-overlay/src/taskbar"
	"click-overlay/src/worker"
)

type fakeWindow struct {
	calls    []string
	applied  [][]geometry.Rect
	devtools map[string]bool
	failDev  error
}

func (w *fakeWindow) ApplyShape(rects []geometry.Rect) {
	w.calls = append(w.calls, "apply")
	w.applied = append(w.applied, rects)
}

func (w *fakeWindow) ClearShape() { w.calls = append(w.calls, "clear") }

func (w *fakeWindow) SetIgnoreInput(ignore, forward bool) {
	w.calls = append(w.calls, fmt.Sprintf("ignore=%v forward=%v", ignore, forward))
}

func (w *fakeWindow) ToggleDevTools(target string, cb worker.ToggleCallback) {
	if w.devtools == nil {
		w.devtools = map[string]bool{}
	}
	w.devtools[target] = !w.devtools[target]
	cb(w.devtools[target], w.failDev)
}

func (w *fakeWindow) last() []geometry.Rect {
	if len(w.applied) == 0 {
		return nil
	}
	return w.applied[len(w.applied)-1]
}

func (w *fakeWindow) reset() { w.calls, w.applied = nil, nil }

type fakeSampler struct{ on []bool }

func (s *fakeSampler) SetEnabled(on bool) { s.on = append(s.on, on) }

type harness struct {
	e       *Engine
	win     *fakeWindow
	sampler *fakeSampler
	clock   *clockwork.FakeClock
	posted  chan func()
	events  []Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		win:     &fakeWindow{},
		sampler: &fakeSampler{},
		clock:   clockwork.NewFakeClock(),
		posted:  make(chan func(), 16),
	}
	h.e = New(Options{
		Window:  h.win,
		Sampler: h.sampler,
		Clock:   h.clock,
		Post:    func(fn func()) { h.posted <- fn },
		Notify:  func(ev Event) { h.events = append(h.events, ev) },
	})
	t.Cleanup(h.e.Close)
	return h
}

// drain runs posted work until none arrives within a short wait.
func (h *harness) drain() {
	for {
		select {
		case fn := <-h.posted:
			fn()
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

func (h *harness) kinds() []EventKind {
	var out []EventKind
	for _, ev := range h.events {
		if ev.Kind != EventShape {
			out = append(out, ev.Kind)
		}
	}
	return out
}

func region(id string, x, y, w, hgt, alpha float64) scene.Element {
	st := scene.DefaultStyle()
	st.BackgroundAlpha = alpha
	return scene.Element{
		ID:          id,
		Interactive: true,
		Bounds:      geometry.Box{X: x, Y: y, Width: w, Height: hgt},
		Style:       st,
	}
}

func layout(els ...scene.Element) scene.Layout {
	return scene.Layout{Viewport: geometry.Size{Width: 800, Height: 600}, Elements: els}
}

func TestOpaqueRegionBecomesShape(t *testing.T) {
	h := newHarness(t)
	got := h.e.ReplaceLayout(layout(region("a", 0, 0, 100, 40, 0.6)), "")
	want := []geometry.Rect{{X: 0, Y: 0, Width: 100, Height: 40}}
	assert.Equal(t, want, got)
	assert.Equal(t, want, h.win.last())
}

func TestTranslucentRegionIsExcluded(t *testing.T) {
	h := newHarness(t)
	got := h.e.ReplaceLayout(layout(region("b", 0, 0, 100, 40, 0.3)), "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, h.win.last())
}

func TestRecomputeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(layout(
		region("a", 0, 0, 100, 40, 1),
		region("c", 10, 10, 80, 60, 1),
	), "")
	first := h.e.RecomputeShape(TriggerManual)
	second := h.e.RecomputeShape(TriggerManual)
	assert.Equal(t, first, second)
	assert.Equal(t, first, h.e.Shape())
}

func TestEnterFullCaptureAppliesWholeWindow(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(layout(region("a", 0, 0, 100, 40, 1)), "")
	h.win.reset()

	require.NoError(t, h.e.SetMode(mode.FullCapture))
	assert.Equal(t, mode.FullCapture, h.e.Mode())
	assert.Equal(t, []string{"ignore=false forward=false", "apply"}, h.win.calls)
	assert.Equal(t, []geometry.Rect{{Width: 800, Height: 600}}, h.win.last())
	assert.Equal(t, []bool{false}, h.sampler.on)

	// Layout changes do not reshape a full-capture window.
	h.e.ReplaceLayout(layout(), "")
	assert.Equal(t, []geometry.Rect{{Width: 800, Height: 600}}, h.win.last())

	h.win.reset()
	require.NoError(t, h.e.SetMode(mode.FullCapture))
	assert.Empty(t, h.win.calls)
}

func TestFullCaptureBeforeClientSizeClearsShape(t *testing.T) {
	h := newHarness(t)
	require.Zero(t, h.e.ClientSize())

	require.NoError(t, h.e.SetMode(mode.FullCapture))
	assert.Equal(t, []string{"ignore=false forward=false", "clear"}, h.win.calls)
	assert.Empty(t, h.win.applied)
	assert.Empty(t, h.e.Shape())

	// The first layout supplies the size and the whole window is applied.
	h.win.reset()
	h.e.ReplaceLayout(layout(), "")
	assert.Equal(t, []string{"apply"}, h.win.calls)
	assert.Equal(t, []geometry.Rect{{Width: 800, Height: 600}}, h.win.last())
}

func TestReturnToSmartRecomputesFromCurrentLayout(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(layout(region("a", 0, 0, 100, 40, 1)), "")
	require.NoError(t, h.e.SetMode(mode.FullCapture))
	h.e.ReplaceLayout(layout(region("z", 5, 5, 10, 10, 1)), "")
	h.win.reset()

	require.NoError(t, h.e.SetMode(mode.Smart))
	assert.Equal(t, []string{"ignore=false forward=false", "clear", "apply"}, h.win.calls)
	assert.Equal(t, []geometry.Rect{{X: 5, Y: 5, Width: 10, Height: 10}}, h.win.last())
	assert.Equal(t, []bool{false, true}, h.sampler.on)
	assert.Equal(t, []EventKind{EventMode, EventMode}, h.kinds())
}

func TestReenteringSmartOnlyRecomputes(t *testing.T) {
	h := newHarness(t)
	before := h.e.Snapshot().Recomputes
	require.NoError(t, h.e.SetMode(mode.Smart))
	assert.Equal(t, []string{"apply"}, h.win.calls)
	assert.Equal(t, before+1, h.e.Snapshot().Recomputes)
	assert.Empty(t, h.kinds())
}

func TestUnknownModeRejected(t *testing.T) {
	h := newHarness(t)
	err := h.e.SetMode(mode.Mode(42))
	assert.ErrorIs(t, err, mode.ErrUnknownMode)
	assert.ErrorIs(t, h.e.SyncMode(mode.Mode(-1)), mode.ErrUnknownMode)
	assert.Equal(t, mode.Smart, h.e.Mode())
	assert.Empty(t, h.win.calls)
	assert.Empty(t, h.events)
}

func TestToggleMode(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, mode.FullCapture, h.e.ToggleMode())
	assert.Equal(t, mode.Smart, h.e.ToggleMode())
	assert.Equal(t, mode.Smart, h.e.Mode())
}

func TestSyncModeRecomputesWithoutWindowFlags(t *testing.T) {
	h := newHarness(t)
	h.e.SetClientSize(geometry.Size{Width: 300, Height: 200})
	require.NoError(t, h.e.SyncMode(mode.FullCapture))
	assert.Equal(t, []string{"apply"}, h.win.calls)
	assert.Equal(t, []geometry.Rect{{Width: 300, Height: 200}}, h.win.last())
	assert.Equal(t, []bool{false}, h.sampler.on)
}

func TestObserveCursor(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(layout(region("faint", 0, 0, 50, 50, 0.1)), "")

	opaque, changed := h.e.ObserveCursor(geometry.Point{X: 25, Y: 25})
	assert.True(t, opaque, "interactive box wins over alpha")
	assert.True(t, changed)

	opaque, changed = h.e.ObserveCursor(geometry.Point{X: 50, Y: 50})
	assert.True(t, opaque, "edges are inclusive")
	assert.False(t, changed)

	opaque, changed = h.e.ObserveCursor(geometry.Point{X: 200, Y: 200})
	assert.False(t, opaque)
	assert.True(t, changed)

	snap := h.e.Snapshot()
	require.NotNil(t, snap.LastOpaque)
	assert.False(t, *snap.LastOpaque)
	assert.Equal(t, &geometry.Point{X: 200, Y: 200}, snap.Cursor)

	// The verdict never reshapes the window.
	assert.Len(t, h.win.applied, 1)

	require.NoError(t, h.e.SetMode(mode.FullCapture))
	_, changed = h.e.ObserveCursor(geometry.Point{X: 25, Y: 25})
	assert.False(t, changed)
	assert.False(t, *h.e.Snapshot().LastOpaque)
}

func barLayout() scene.Layout {
	return layout(
		region("content", 0, 100, 100, 100, 1),
		region(DefaultBarID, 0, 0, 800, 30, 1),
		region(DefaultHandleID, 0, 0, 800, 4, 1),
	)
}

func TestControlBarParticipatesInShape(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(barLayout(), "")
	require.True(t, h.e.Bar().Mounted())
	content := geometry.Rect{X: 0, Y: 100, Width: 100, Height: 100}
	bar := geometry.Rect{X: 0, Y: 0, Width: 800, Height: 30}
	handle := geometry.Rect{X: 0, Y: 0, Width: 800, Height: 4}
	assert.Equal(t, []geometry.Rect{content, handle}, h.win.last())

	require.NoError(t, h.e.PointerEvent(PointerHandle, PointerEnter))
	assert.Equal(t, taskbar.Shown, h.e.Bar().Visibility())
	assert.Equal(t, "shown", h.e.Snapshot().Bar)
	assert.Equal(t, []geometry.Rect{content, bar}, h.win.last())

	require.NoError(t, h.e.PointerEvent(PointerBar, PointerEnter))
	require.NoError(t, h.e.PointerEvent(PointerBar, PointerLeave))
	h.clock.Advance(taskbar.DefaultHideDelay)
	h.drain()
	assert.True(t, h.e.Bar().Hidden())
	assert.Equal(t, []geometry.Rect{content, handle}, h.win.last())
	assert.Equal(t, []EventKind{EventBar, EventBar, EventBar}, h.kinds())
}

func TestHandleHiddenWhileBarShown(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(barLayout(), "")

	require.NoError(t, h.e.BarAction("show", 0))
	el, ok := h.e.doc.Element(DefaultHandleID)
	require.True(t, ok)
	assert.False(t, el.Style.Visible())
	for _, r := range h.win.last() {
		assert.NotEqual(t, geometry.Rect{X: 0, Y: 0, Width: 800, Height: 4}, r)
	}

	// A fresh snapshot from the content surface keeps the handle hidden.
	got := h.e.ReplaceLayout(barLayout(), TriggerResize)
	assert.Equal(t, []geometry.Rect{{X: 0, Y: 100, Width: 100, Height: 100}, {X: 0, Y: 0, Width: 800, Height: 30}}, got)

	require.NoError(t, h.e.BarAction("hide", 0))
	el, _ = h.e.doc.Element(DefaultHandleID)
	assert.True(t, el.Style.Visible())
}

func TestControlBarOverrideSurvivesNewLayouts(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(barLayout(), "")
	got := h.e.ReplaceLayout(barLayout(), TriggerResize)
	assert.Equal(t, []geometry.Rect{{X: 0, Y: 100, Width: 100, Height: 100}, {X: 0, Y: 0, Width: 800, Height: 4}}, got)
}

func TestBarWithoutHandlesIsNoop(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(layout(region(DefaultBarID, 0, 0, 800, 30, 1)), "")
	assert.False(t, h.e.Bar().Mounted())

	h.win.reset()
	require.NoError(t, h.e.PointerEvent(PointerHandle, PointerEnter))
	require.NoError(t, h.e.BarAction("show", 0))
	assert.Empty(t, h.win.calls)
	assert.Empty(t, h.kinds())
}

func TestBarActions(t *testing.T) {
	h := newHarness(t)
	h.e.ReplaceLayout(barLayout(), "")

	require.NoError(t, h.e.BarAction("toggle", 0))
	assert.Equal(t, taskbar.Shown, h.e.Bar().Visibility())
	require.NoError(t, h.e.BarAction("hide", 0))
	assert.True(t, h.e.Bar().Hidden())
	require.NoError(t, h.e.BarAction("", 1500*time.Millisecond))
	assert.Equal(t, int64(1500), h.e.Snapshot().HideDelayMS)

	assert.ErrorIs(t, h.e.BarAction("explode", 0), ErrUnknownBarAction)
	assert.ErrorIs(t, h.e.PointerEvent(PointerBar, "click"), ErrUnknownPointer)
}

func TestDevToolsToggleRecomputes(t *testing.T) {
	h := newHarness(t)
	before := h.e.Snapshot().Recomputes
	h.e.ToggleDevTools("chat")
	h.drain()

	snap := h.e.Snapshot()
	assert.Equal(t, map[string]bool{"chat": true}, snap.DevTools)
	assert.Equal(t, before+1, snap.Recomputes)
	require.Equal(t, []EventKind{EventDevTools}, h.kinds())
	assert.Equal(t, "chat", h.events[0].Target)
	assert.True(t, h.events[0].Open)
}

func TestDevToolsFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.win.failDev = fmt.Errorf("window gone")
	h.e.ToggleDevTools("chat")
	h.drain()
	assert.Empty(t, h.e.Snapshot().DevTools)
	assert.Empty(t, h.win.calls)
}

func TestSelectTab(t *testing.T) {
	h := newHarness(t)
	h.e.SelectTab("notes")
	snap := h.e.Snapshot()
	assert.Equal(t, "notes", snap.Tab)
	assert.Equal(t, uint64(1), snap.Recomputes)
	require.Len(t, h.events, 1)
	assert.Equal(t, TriggerTab, h.events[0].Trigger)
}

func TestInjectedState(t *testing.T) {
	st := NewState()
	st.Mode = mode.FullCapture
	e := New(Options{Window: &fakeWindow{}, State: st})
	defer e.Close()
	e.SetClientSize(geometry.Size{Width: 10, Height: 10})
	assert.Equal(t, []geometry.Rect{{Width: 10, Height: 10}}, e.RecomputeShape(TriggerManual))
	assert.Equal(t, "full-capture", e.Snapshot().Mode.String())
}
