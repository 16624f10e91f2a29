// Package mode defines the overlay's two interaction modes.
package mode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the window decides where it takes pointer input.
type Mode int

const (
	// Smart makes only the content-derived shape hit-testable; everything
	// else clicks through to the desktop.
	Smart Mode = iota
	// FullCapture makes the entire window hit-testable.
	FullCapture
)

// ErrUnknownMode is returned for mode values outside {Smart, FullCapture}.
var ErrUnknownMode = errors.New("unknown interaction mode")

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case Smart:
		return "smart"
	case FullCapture:
		return "full-capture"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Description is the human-readable explanation shown by the tray and CLI.
func (m Mode) Description() string {
	switch m {
	case Smart:
		return "Smart click-through mode - shape-based interaction"
	case FullCapture:
		return "Full capture mode - entire window interactive"
	default:
		return ""
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool { return m == Smart || m == FullCapture }

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == FullCapture {
		return Smart
	}
	return FullCapture
}

// Parse resolves a mode name. Accepted spellings are case-insensitive.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smart", "click-through":
		return Smart, nil
	case "full-capture", "full", "capture":
		return FullCapture, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
