package winctl

import (
	"context"
	"slices"
	"sync"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"

	"click-overlay/src/geometry"
)

// Headless is an in-memory window. It records every request so the daemon can
// run without a native window attached, and reports the primary display as the
// client area when created with HeadlessFromDisplay.
type Headless struct {
	mu       sync.Mutex
	size     geometry.Size
	pointer  geometry.Point
	cursorEr error
	shape    []geometry.Rect
	shaped   bool
	ignore   bool
	forward  bool
	raised   int
	applied  int
	closed   bool
	devtools devTools
}

// NewHeadless returns a headless window with the given client size.
func NewHeadless(size geometry.Size) *Headless {
	return &Headless{size: size}
}

// HeadlessFromDisplay sizes the headless window to the primary display.
func HeadlessFromDisplay(log *zap.Logger) *Headless {
	size := geometry.Size{Width: 1280, Height: 720}
	if screenshot.NumActiveDisplays() > 0 {
		b := screenshot.GetDisplayBounds(0)
		if b.Dx() > 0 && b.Dy() > 0 {
			size = geometry.Size{Width: b.Dx(), Height: b.Dy()}
		}
	}
	if log != nil {
		log.Debug("headless window sized", zap.Int("width", size.Width), zap.Int("height", size.Height))
	}
	return NewHeadless(size)
}

func (h *Headless) ApplyShape(_ context.Context, rects []geometry.Rect) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrWindowUnavailable
	}
	h.shape = slices.Clone(rects)
	if h.shape == nil {
		h.shape = []geometry.Rect{}
	}
	h.shaped = true
	h.applied++
	return nil
}

func (h *Headless) ClearShape(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrWindowUnavailable
	}
	h.shape = nil
	h.shaped = false
	return nil
}

func (h *Headless) SetIgnoreInput(_ context.Context, ignore, forward bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrWindowUnavailable
	}
	h.ignore, h.forward = ignore, forward
	return nil
}

func (h *Headless) CursorPosition(context.Context) (geometry.Point, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return geometry.Point{}, ErrWindowUnavailable
	}
	if h.cursorEr != nil {
		return geometry.Point{}, h.cursorEr
	}
	return h.pointer, nil
}

func (h *Headless) ClientSize(context.Context) (geometry.Size, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return geometry.Size{}, ErrWindowUnavailable
	}
	return h.size, nil
}

func (h *Headless) SetAlwaysOnTop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raised++
	return nil
}

func (h *Headless) ToggleContentDevTools(_ context.Context, target string) (bool, error) {
	return h.devtools.toggle(target), nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// MovePointer sets the position CursorPosition reports.
func (h *Headless) MovePointer(p geometry.Point) {
	h.mu.Lock()
	h.pointer = p
	h.mu.Unlock()
}

// FailCursor makes CursorPosition fail with err until called with nil.
func (h *Headless) FailCursor(err error) {
	h.mu.Lock()
	h.cursorEr = err
	h.mu.Unlock()
}

// Resize changes the reported client size.
func (h *Headless) Resize(s geometry.Size) {
	h.mu.Lock()
	h.size = s
	h.mu.Unlock()
}

// Shape returns the applied rectangles and whether an explicit shape is set.
func (h *Headless) Shape() ([]geometry.Rect, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.shape), h.shaped
}

// IgnoringInput reports the last SetIgnoreInput request.
func (h *Headless) IgnoringInput() (ignore, forward bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ignore, h.forward
}

// Applies counts ApplyShape calls.
func (h *Headless) Applies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.applied
}

// DevToolsOpen reports the inspector state for target.
func (h *Headless) DevToolsOpen(target string) bool { return h.devtools.isOpen(target) }
