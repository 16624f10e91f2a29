// Package winctl is the boundary to the native overlay window: it applies input
// shapes, toggles click-through, reports the cursor and the client size. Every
// coordinate crossing this boundary is in device-independent pixels.
package winctl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"click-overlay/src/geometry"
)

var (
	// ErrWindowUnavailable is returned while the target window is missing,
	// closing or not yet created. Callers retry on the next trigger.
	ErrWindowUnavailable = errors.New("overlay window unavailable")
	// ErrUnsupported is returned for backends not available on this platform.
	ErrUnsupported = errors.New("window backend not supported on this platform")
)

// Controller drives one overlay window.
type Controller interface {
	// ApplyShape restricts hit-testing to exactly the union of rects. An empty
	// list leaves nothing hit-testable.
	ApplyShape(ctx context.Context, rects []geometry.Rect) error
	// ClearShape drops any explicit shape so the window's default
	// whole-window hit region applies again.
	ClearShape(ctx context.Context) error
	// SetIgnoreInput makes the whole window transparent to pointer input.
	// forward asks the host to keep delivering move events for hover feedback
	// where it can.
	SetIgnoreInput(ctx context.Context, ignore, forward bool) error
	// CursorPosition returns the pointer relative to the client area.
	CursorPosition(ctx context.Context) (geometry.Point, error)
	// ClientSize returns the window's client area size.
	ClientSize(ctx context.Context) (geometry.Size, error)
	// SetAlwaysOnTop re-asserts top-most stacking.
	SetAlwaysOnTop(ctx context.Context) error
	// ToggleContentDevTools flips the inspector for an embedded content
	// target and returns whether it is now open.
	ToggleContentDevTools(ctx context.Context, target string) (bool, error)
	Close() error
}

// Backend names a Controller implementation.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendWin32    Backend = "win32"
	BackendX11      Backend = "x11"
	BackendHeadless Backend = "headless"
)

// ParseBackend accepts the backend names used in configuration.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendWin32, BackendX11, BackendHeadless:
		return b, nil
	default:
		return "", fmt.Errorf("unknown window backend %q", s)
	}
}

// Open attaches to the overlay window named by target. With BackendAuto an
// empty target selects the headless backend and anything else the platform's
// native one.
func Open(backend Backend, target string, log *zap.Logger) (Controller, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if backend == BackendAuto {
		backend = BackendHeadless
		if target != "" {
			backend = nativeBackend
		}
	}
	log.Info("attaching overlay window", zap.String("backend", string(backend)), zap.String("target", target))
	switch backend {
	case BackendHeadless:
		return HeadlessFromDisplay(log), nil
	case nativeBackend:
		c, err := openNative(target, log)
		if err != nil {
			return nil, fmt.Errorf("open %s window %q: %w", backend, target, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%s: %w", backend, ErrUnsupported)
	}
}

// devTools tracks inspector state per content target. Native windows host no
// inspector themselves; the content surface opens it when notified.
type devTools struct {
	mu   sync.Mutex
	open map[string]bool
}

func (d *devTools) toggle(target string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open == nil {
		d.open = map[string]bool{}
	}
	d.open[target] = !d.open[target]
	return d.open[target]
}

func (d *devTools) isOpen(target string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open[target]
}
