//go:build !windows

package winctl

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"

	"click-overlay/src/geometry"
)

const nativeBackend = BackendX11

// x11Window shapes the input region of an existing X11 window through the
// SHAPE extension. The bounding region is left alone so rendering is never
// clipped.
type x11Window struct {
	conn *xgb.Conn
	wid  xproto.Window
	log  *zap.Logger

	mu       sync.Mutex
	last     []xproto.Rectangle
	shaped   bool
	ignoring bool
	devtools devTools
}

func openNative(target string, log *zap.Logger) (Controller, error) {
	v, err := strconv.ParseUint(target, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("parse window id: %w", err)
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := shape.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("SHAPE extension: %w", err)
	}
	w := &x11Window{conn: conn, wid: xproto.Window(v), log: log}
	if _, err := xproto.GetGeometry(conn, xproto.Drawable(w.wid)).Reply(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return w, nil
}

// toXRects converts DIP rectangles to X11 rectangles, dropping empty ones and
// clamping to the protocol's 16-bit fields.
func toXRects(rects []geometry.Rect) []xproto.Rectangle {
	out := make([]xproto.Rectangle, 0, len(rects))
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		out = append(out, xproto.Rectangle{
			X:      int16(clampInt(r.X, math.MinInt16, math.MaxInt16)),
			Y:      int16(clampInt(r.Y, math.MinInt16, math.MaxInt16)),
			Width:  uint16(clampInt(r.Width, 0, math.MaxUint16)),
			Height: uint16(clampInt(r.Height, 0, math.MaxUint16)),
		})
	}
	return out
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func (w *x11Window) setInput(rects []xproto.Rectangle) error {
	err := shape.RectanglesChecked(w.conn, shape.SoSet, shape.SkInput,
		xproto.ClipOrderingUnsorted, w.wid, 0, 0, rects).Check()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return nil
}

func (w *x11Window) clearInput() error {
	err := shape.MaskChecked(w.conn, shape.SoSet, shape.SkInput, w.wid, 0, 0, xproto.PixmapNone).Check()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return nil
}

func (w *x11Window) ApplyShape(_ context.Context, rects []geometry.Rect) error {
	xr := toXRects(rects)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last, w.shaped = xr, true
	if w.ignoring {
		return nil
	}
	return w.setInput(xr)
}

func (w *x11Window) ClearShape(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last, w.shaped = nil, false
	if w.ignoring {
		return nil
	}
	return w.clearInput()
}

// SetIgnoreInput empties the input region while ignoring and restores the last
// applied shape afterwards. X11 has no forwarding; forward is ignored.
func (w *x11Window) SetIgnoreInput(_ context.Context, ignore, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ignoring == ignore {
		return nil
	}
	w.ignoring = ignore
	switch {
	case ignore:
		return w.setInput(nil)
	case w.shaped:
		return w.setInput(w.last)
	default:
		return w.clearInput()
	}
}

func (w *x11Window) CursorPosition(context.Context) (geometry.Point, error) {
	r, err := xproto.QueryPointer(w.conn, w.wid).Reply()
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return geometry.Point{X: float64(r.WinX), Y: float64(r.WinY)}, nil
}

func (w *x11Window) ClientSize(context.Context) (geometry.Size, error) {
	g, err := xproto.GetGeometry(w.conn, xproto.Drawable(w.wid)).Reply()
	if err != nil {
		return geometry.Size{}, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return geometry.Size{Width: int(g.Width), Height: int(g.Height)}, nil
}

func (w *x11Window) SetAlwaysOnTop(context.Context) error {
	err := xproto.ConfigureWindowChecked(w.conn, w.wid, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	return nil
}

func (w *x11Window) ToggleContentDevTools(_ context.Context, target string) (bool, error) {
	return w.devtools.toggle(target), nil
}

func (w *x11Window) Close() error {
	w.conn.Close()
	return nil
}
