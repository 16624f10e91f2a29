// Package hotkey listens for the global mode-toggle key combination.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gohook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// DefaultCombo toggles between smart and full-capture mode.
const DefaultCombo = "Ctrl+B"

var ErrUnknownKey = errors.New("unknown key name")

// Combo is a parsed key combination. Each key lists every rawcode that counts
// as that key (left and right modifiers).
type Combo struct {
	spec string
	keys []key
}

type key struct {
	name     string
	rawcodes []uint16
}

func (c Combo) String() string { return c.spec }

// Parse turns "Ctrl+Alt+q" style text into a Combo.
func Parse(spec string) (Combo, error) {
	names := normalize(spec)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("empty hotkey %q", spec)
	}
	c := Combo{spec: spec}
	for _, n := range names {
		codes, ok := rawcodes[n]
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: %w: %s", spec, ErrUnknownKey, n)
		}
		c.keys = append(c.keys, key{name: n, rawcodes: codes})
	}
	return c, nil
}

// normalize lowercases the key names and folds modifier aliases.
func normalize(spec string) []string {
	var out []string
	for _, part := range strings.Split(strings.ToLower(spec), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super", "meta":
			part = "cmd"
		}
		out = append(out, part)
	}
	return out
}

// Matcher tracks which keys of a combo are held.
type Matcher struct {
	combo   Combo
	pressed []bool
}

// NewMatcher returns a matcher with nothing pressed.
func NewMatcher(c Combo) *Matcher {
	return &Matcher{combo: c, pressed: make([]bool, len(c.keys))}
}

// Feed consumes one hook event and reports whether it completed the combo.
// Both press and typed events count as a key going down. Held state resets
// after every match so auto-repeat and the trailing typed event do not re-fire.
func (m *Matcher) Feed(kind uint8, rawcode uint16) bool {
	switch kind {
	case gohook.KeyDown, gohook.KeyHold:
	case gohook.KeyUp:
		m.set(rawcode, false)
		return false
	default:
		return false
	}
	if !m.set(rawcode, true) {
		return false
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	clear(m.pressed)
	return true
}

func (m *Matcher) set(rawcode uint16, down bool) bool {
	hit := false
	for i, k := range m.combo.keys {
		for _, rc := range k.rawcodes {
			if rc == rawcode {
				m.pressed[i] = down
				hit = true
			}
		}
	}
	return hit
}

// Listen starts the global keyboard hook and calls fn each time the combo is
// pressed, until ctx is done. fn runs on the hook goroutine and must not
// block.
func Listen(ctx context.Context, spec string, fn func(), log *zap.Logger) error {
	combo, err := Parse(spec)
	if err != nil {
		return err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("hotkey registered", zap.Stringer("combo", combo))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("hotkey hook panicked", zap.Any("panic", r))
			}
		}()
		events := gohook.Start()
		if events == nil {
			log.Error("keyboard hook unavailable")
			return
		}
		defer gohook.End()

		m := NewMatcher(combo)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					log.Debug("keyboard hook closed")
					return
				}
				if m.Feed(ev.Kind, ev.Rawcode) {
					log.Debug("hotkey pressed", zap.Stringer("combo", combo))
					fn()
				}
			}
		}
	}()
	return nil
}
