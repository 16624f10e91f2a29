//go:build windows

package winctl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"click-overlay/src/geometry"
)

const nativeBackend = BackendWin32

const rgnOr = 2 // RGN_OR

var (
	gdi32               = windows.NewLazySystemDLL("gdi32.dll")
	procCreateRectRgn   = gdi32.NewProc("CreateRectRgn")
	procCombineRgn      = gdi32.NewProc("CombineRgn")
	procDeleteObject    = gdi32.NewProc("DeleteObject")
	user32              = windows.NewLazySystemDLL("user32.dll")
	procSetWindowRgn    = user32.NewProc("SetWindowRgn")
	procGetDpiForWindow = user32.NewProc("GetDpiForWindow")
)

// win32Window shapes a top-level window through its window region and toggles
// click-through with WS_EX_TRANSPARENT.
type win32Window struct {
	hwnd     win.HWND
	log      *zap.Logger
	devtools devTools
}

func openNative(target string, log *zap.Logger) (Controller, error) {
	hwnd, err := findWindow(target)
	if err != nil {
		return nil, err
	}
	log.Debug("win32 window found", zap.Uintptr("hwnd", uintptr(hwnd)))
	return &win32Window{hwnd: hwnd, log: log}, nil
}

// findWindow accepts a window title or a raw handle written as 0x-prefixed hex.
func findWindow(target string) (win.HWND, error) {
	if strings.HasPrefix(target, "0x") {
		v, err := strconv.ParseUint(target[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("parse window handle: %w", err)
		}
		return win.HWND(v), nil
	}
	title, err := windows.UTF16PtrFromString(target)
	if err != nil {
		return 0, err
	}
	hwnd := win.FindWindow(nil, title)
	if hwnd == 0 {
		return 0, ErrWindowUnavailable
	}
	return hwnd, nil
}

func (w *win32Window) alive() error {
	if !win.IsWindow(w.hwnd) {
		return ErrWindowUnavailable
	}
	return nil
}

func (w *win32Window) scale() float64 {
	if procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(uintptr(w.hwnd))
	return dpiScale(uint32(dpi))
}

func (w *win32Window) ApplyShape(_ context.Context, rects []geometry.Rect) error {
	if err := w.alive(); err != nil {
		return err
	}
	scale := w.scale()
	rgn, _, _ := procCreateRectRgn.Call(0, 0, 0, 0)
	if rgn == 0 {
		return fmt.Errorf("CreateRectRgn failed")
	}
	for _, r := range rects {
		p := toPhysical(r, scale)
		part, _, _ := procCreateRectRgn.Call(
			uintptr(int32(p.X)), uintptr(int32(p.Y)),
			uintptr(int32(p.Right())), uintptr(int32(p.Bottom())))
		if part == 0 {
			continue
		}
		procCombineRgn.Call(rgn, rgn, part, rgnOr)
		procDeleteObject.Call(part)
	}
	// The system owns the region once SetWindowRgn succeeds.
	if ok, _, _ := procSetWindowRgn.Call(uintptr(w.hwnd), rgn, 1); ok == 0 {
		procDeleteObject.Call(rgn)
		return fmt.Errorf("SetWindowRgn failed: %w", ErrWindowUnavailable)
	}
	return nil
}

func (w *win32Window) ClearShape(context.Context) error {
	if err := w.alive(); err != nil {
		return err
	}
	if ok, _, _ := procSetWindowRgn.Call(uintptr(w.hwnd), 0, 1); ok == 0 {
		return fmt.Errorf("SetWindowRgn failed: %w", ErrWindowUnavailable)
	}
	return nil
}

func (w *win32Window) SetIgnoreInput(_ context.Context, ignore, forward bool) error {
	if err := w.alive(); err != nil {
		return err
	}
	style := win.GetWindowLong(w.hwnd, win.GWL_EXSTYLE)
	next := style | win.WS_EX_LAYERED
	if ignore {
		next |= win.WS_EX_TRANSPARENT
	} else {
		next &^= win.WS_EX_TRANSPARENT
	}
	if next != style {
		win.SetWindowLong(w.hwnd, win.GWL_EXSTYLE, next)
	}
	if ignore && forward {
		// Transparent windows receive no input at all; hover feedback comes
		// from the cursor poller instead.
		w.log.Debug("move forwarding requested on a click-through window")
	}
	return nil
}

func (w *win32Window) CursorPosition(context.Context) (geometry.Point, error) {
	if err := w.alive(); err != nil {
		return geometry.Point{}, err
	}
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return geometry.Point{}, fmt.Errorf("GetCursorPos failed")
	}
	if !win.ScreenToClient(w.hwnd, &pt) {
		return geometry.Point{}, ErrWindowUnavailable
	}
	s := w.scale()
	return geometry.Point{X: toDIP(pt.X, s), Y: toDIP(pt.Y, s)}, nil
}

func (w *win32Window) ClientSize(context.Context) (geometry.Size, error) {
	if err := w.alive(); err != nil {
		return geometry.Size{}, err
	}
	var rc win.RECT
	if !win.GetClientRect(w.hwnd, &rc) {
		return geometry.Size{}, ErrWindowUnavailable
	}
	return sizeToDIP(rc.Right-rc.Left, rc.Bottom-rc.Top, w.scale()), nil
}

func (w *win32Window) SetAlwaysOnTop(context.Context) error {
	if err := w.alive(); err != nil {
		return err
	}
	if !win.SetWindowPos(w.hwnd, win.HWND_TOPMOST, 0, 0, 0, 0,
		win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOACTIVATE) {
		return fmt.Errorf("SetWindowPos failed")
	}
	return nil
}

func (w *win32Window) ToggleContentDevTools(_ context.Context, target string) (bool, error) {
	if err := w.alive(); err != nil {
		return false, err
	}
	return w.devtools.toggle(target), nil
}

func (w *win32Window) Close() error { return nil }
