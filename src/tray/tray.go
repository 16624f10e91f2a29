// Package tray shows the notification-area icon with the interaction mode
// toggles.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"click-overlay/src/engine"
	"click-overlay/src/mode"
)

// Actions is the part of the event loop the menu drives.
type Actions interface {
	SetMode(m mode.Mode)
	RequestRecompute(trigger string)
	BarAction(action string)
}

type Config struct {
	Title   string
	Tooltip string
	Hotkey  string
	// OnExit runs once when the user picks Quit or Stop is called.
	OnExit func()
	Logger *zap.Logger
}

type Tray struct {
	cfg     Config
	actions Actions
	log     *zap.Logger

	mu    sync.Mutex
	mode  mode.Mode
	items *menuItems
	quit  sync.Once
}

type menuItems struct {
	smart     *systray.MenuItem
	full      *systray.MenuItem
	recompute *systray.MenuItem
	bar       *systray.MenuItem
	quit      *systray.MenuItem
}

func New(cfg Config, actions Actions) *Tray {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Click Overlay"
	}
	return &Tray{cfg: cfg, actions: actions, log: log, mode: mode.Smart}
}

// Run blocks until the tray exits. Call it from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Stop removes the icon and unblocks Run.
func (t *Tray) Stop() {
	systray.Quit()
}

// Observe keeps the menu in step with engine events. Safe before Run.
func (t *Tray) Observe(ev engine.Event) {
	if ev.Kind != engine.EventMode {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = ev.Mode
	if t.items != nil {
		applyChecks(t.items, ev.Mode)
		systray.SetTooltip(tooltip(t.cfg, ev.Mode))
	}
}

func (t *Tray) onReady() {
	icon, err := Icon()
	if err != nil {
		t.log.Warn("tray icon unavailable", zap.Error(err))
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle(t.cfg.Title)

	items := &menuItems{
		smart:     systray.AddMenuItemCheckbox(menuLabel(mode.Smart), mode.Smart.Description(), false),
		full:      systray.AddMenuItemCheckbox(menuLabel(mode.FullCapture), mode.FullCapture.Description(), false),
		recompute: systray.AddMenuItem("Recompute shape", "Re-run shape extraction now"),
		bar:       systray.AddMenuItem("Toggle control bar", "Show or hide the control bar"),
	}
	systray.AddSeparator()
	items.quit = systray.AddMenuItem("Quit", "Quit the overlay")

	t.mu.Lock()
	t.items = items
	applyChecks(items, t.mode)
	systray.SetTooltip(tooltip(t.cfg, t.mode))
	t.mu.Unlock()

	go t.serve(items)
	t.log.Info("tray ready")
}

func (t *Tray) serve(items *menuItems) {
	for {
		select {
		case <-items.smart.ClickedCh:
			t.actions.SetMode(mode.Smart)
		case <-items.full.ClickedCh:
			t.actions.SetMode(mode.FullCapture)
		case <-items.recompute.ClickedCh:
			t.actions.RequestRecompute(engine.TriggerManual)
		case <-items.bar.ClickedCh:
			t.actions.BarAction("toggle")
		case <-items.quit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {
	t.quit.Do(func() {
		if t.cfg.OnExit != nil {
			t.cfg.OnExit()
		}
	})
}

func applyChecks(items *menuItems, m mode.Mode) {
	if m == mode.FullCapture {
		items.full.Check()
		items.smart.Uncheck()
		return
	}
	items.smart.Check()
	items.full.Uncheck()
}

func menuLabel(m mode.Mode) string {
	if m == mode.FullCapture {
		return "Full capture"
	}
	return "Smart click-through"
}

func tooltip(cfg Config, m mode.Mode) string {
	s := cfg.Title + ": " + menuLabel(m)
	if cfg.Tooltip != "" {
		s = cfg.Tooltip + " (" + menuLabel(m) + ")"
	}
	if cfg.Hotkey != "" {
		s += " - " + cfg.Hotkey + " toggles"
	}
	return s
}
