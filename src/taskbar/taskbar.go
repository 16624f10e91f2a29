// Package taskbar schedules the auto-hiding control bar. The bar and its reveal
// handle are interactive regions themselves, so every visibility change is
// reported to the owner, which recomputes the window shape.
package taskbar

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultHideDelay is how long the bar stays up after the pointer leaves it.
const DefaultHideDelay = 5000 * time.Millisecond

// Visibility is the bar's current state.
type Visibility int

const (
	Hidden Visibility = iota
	Shown
)

func (v Visibility) String() string {
	if v == Shown {
		return "shown"
	}
	return "hidden"
}

// Options configures a Scheduler.
type Options struct {
	Clock clockwork.Clock
	// Delay defaults to DefaultHideDelay.
	Delay time.Duration
	// Post runs fn on the goroutine that owns the scheduler. Timer expiry is
	// delivered through it.
	Post func(fn func())
	// OnChange is called after every visibility transition.
	OnChange func(Visibility)
	Logger   *zap.Logger
}

// Scheduler is the bar's state machine. Every method must be called from the
// owner goroutine (the one Post delivers to). Until Mount is called the bar's
// UI handles are assumed missing and every operation is a no-op.
type Scheduler struct {
	clock    clockwork.Clock
	delay    time.Duration
	post     func(func())
	onChange func(Visibility)
	log      *zap.Logger

	mounted bool
	closed  bool
	vis     Visibility
	timer   clockwork.Timer
	gen     uint64
}

// New returns an unmounted scheduler in the Hidden state.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		clock:    opts.Clock,
		delay:    opts.Delay,
		post:     opts.Post,
		onChange: opts.OnChange,
		log:      opts.Logger,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.delay <= 0 {
		s.delay = DefaultHideDelay
	}
	if s.post == nil {
		s.post = func(fn func()) { fn() }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Mount marks the bar and handle as available and settles the bar hidden.
func (s *Scheduler) Mount() {
	if s.mounted || s.closed {
		return
	}
	s.mounted = true
	s.log.Debug("control bar mounted")
	s.hide()
}

// Mounted reports whether Mount has been called.
func (s *Scheduler) Mounted() bool { return s.mounted }

// Visibility returns the current state.
func (s *Scheduler) Visibility() Visibility { return s.vis }

// Hidden reports whether the bar is hidden.
func (s *Scheduler) Hidden() bool { return s.vis == Hidden }

// Delay returns the current auto-hide delay.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Pending reports whether a hide timer is armed.
func (s *Scheduler) Pending() bool { return s.timer != nil }

// HandleEnter reveals the bar when the pointer reaches the reveal handle.
func (s *Scheduler) HandleEnter() {
	if !s.usable() || s.vis == Shown {
		return
	}
	s.show()
}

// BarEnter keeps the bar up while hovered.
func (s *Scheduler) BarEnter() {
	if !s.usable() {
		return
	}
	s.cancel()
}

// BarLeave starts the inactivity deadline.
func (s *Scheduler) BarLeave() {
	if !s.usable() || s.vis != Shown {
		return
	}
	s.arm()
}

// Show reveals the bar and arms the hide timer.
func (s *Scheduler) Show() {
	if !s.usable() {
		return
	}
	if s.vis == Shown {
		s.arm()
		return
	}
	s.show()
}

// Hide hides the bar immediately.
func (s *Scheduler) Hide() {
	if !s.usable() {
		return
	}
	if s.vis == Hidden {
		s.cancel()
		return
	}
	s.hide()
}

// Toggle flips the bar's visibility.
func (s *Scheduler) Toggle() {
	if s.vis == Hidden {
		s.Show()
		return
	}
	s.Hide()
}

// SetHideDelay changes the auto-hide delay. A pending timer is re-armed with
// the new delay.
func (s *Scheduler) SetHideDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultHideDelay
	}
	s.delay = d
	if s.timer != nil && s.usable() {
		s.arm()
	}
}

// Close cancels the pending timer. The scheduler is inert afterwards.
func (s *Scheduler) Close() {
	s.cancel()
	s.closed = true
}

func (s *Scheduler) usable() bool { return s.mounted && !s.closed }

func (s *Scheduler) show() {
	s.vis = Shown
	s.log.Debug("control bar shown")
	s.notify()
	s.arm()
}

func (s *Scheduler) hide() {
	s.cancel()
	s.vis = Hidden
	s.log.Debug("control bar hidden")
	s.notify()
}

func (s *Scheduler) notify() {
	if s.onChange != nil {
		s.onChange(s.vis)
	}
}

// arm replaces any pending timer; at most one is ever outstanding.
func (s *Scheduler) arm() {
	s.cancel()
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.post(func() { s.expire(gen) })
	})
}

func (s *Scheduler) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) expire(gen uint64) {
	if gen != s.gen || s.closed {
		return
	}
	s.timer = nil
	if s.vis == Shown {
		s.hide()
	}
}
