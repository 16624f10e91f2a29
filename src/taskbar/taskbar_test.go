package taskbar

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock   *clockwork.FakeClock
	posted  chan func()
	changes []Visibility
	s       *Scheduler
}

func newHarness(delay time.Duration) *harness {
	h := &harness{
		clock:  clockwork.NewFakeClock(),
		posted: make(chan func(), 8),
	}
	h.s = New(Options{
		Clock:    h.clock,
		Delay:    delay,
		Post:     func(fn func()) { h.posted <- fn },
		OnChange: func(v Visibility) { h.changes = append(h.changes, v) },
	})
	return h
}

// expectFire advances the clock and runs the posted expiry on this goroutine.
func (h *harness) expectFire(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	select {
	case fn := <-h.posted:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func (h *harness) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	select {
	case <-h.posted:
		t.Fatal("unexpected timer expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnmountedIsInert(t *testing.T) {
	h := newHarness(0)
	h.s.HandleEnter()
	h.s.Show()
	h.s.Toggle()
	h.s.BarLeave()
	assert.True(t, h.s.Hidden())
	assert.False(t, h.s.Pending())
	assert.Empty(t, h.changes)
}

func TestMountHides(t *testing.T) {
	h := newHarness(0)
	h.s.Mount()
	assert.True(t, h.s.Mounted())
	assert.Equal(t, []Visibility{Hidden}, h.changes)
	assert.False(t, h.s.Pending())
	assert.Equal(t, DefaultHideDelay, h.s.Delay())

	h.s.Mount()
	assert.Len(t, h.changes, 1)
}

func TestHandleEnterShowsAndAutoHides(t *testing.T) {
	h := newHarness(0)
	h.s.Mount()
	h.s.HandleEnter()
	require.Equal(t, Shown, h.s.Visibility())
	require.True(t, h.s.Pending())

	h.expectQuiet(t, DefaultHideDelay-time.Millisecond)
	assert.Equal(t, Shown, h.s.Visibility())

	h.expectFire(t, time.Millisecond)
	assert.True(t, h.s.Hidden())
	assert.False(t, h.s.Pending())
	assert.Equal(t, []Visibility{Hidden, Shown, Hidden}, h.changes)
}

func TestHandleEnterWhileShownIsNoop(t *testing.T) {
	h := newHarness(0)
	h.s.Mount()
	h.s.HandleEnter()
	h.s.HandleEnter()
	assert.Equal(t, []Visibility{Hidden, Shown}, h.changes)
}

func TestBarHoverCancelsAndLeaveRearms(t *testing.T) {
	h := newHarness(time.Second)
	h.s.Mount()
	h.s.HandleEnter()

	h.s.BarEnter()
	assert.False(t, h.s.Pending())
	h.expectQuiet(t, 10*time.Second)
	assert.Equal(t, Shown, h.s.Visibility())

	h.s.BarLeave()
	assert.True(t, h.s.Pending())
	h.expectQuiet(t, 500*time.Millisecond)
	h.s.BarEnter()
	h.s.BarLeave()
	h.expectQuiet(t, 500*time.Millisecond)
	h.expectFire(t, 500*time.Millisecond)
	assert.True(t, h.s.Hidden())
}

func TestStaleExpiryIsDiscarded(t *testing.T) {
	h := newHarness(time.Second)
	h.s.Mount()
	h.s.HandleEnter()

	h.clock.Advance(time.Second)
	var fn func()
	select {
	case fn = <-h.posted:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	// The pointer re-entered the bar after the timer fired but before the
	// expiry reached the owner goroutine.
	h.s.BarEnter()
	fn()
	assert.Equal(t, Shown, h.s.Visibility())
}

func TestBarLeaveWhileHiddenIsIgnored(t *testing.T) {
	h := newHarness(0)
	h.s.Mount()
	h.s.BarLeave()
	assert.False(t, h.s.Pending())
}

func TestToggleAndForce(t *testing.T) {
	h := newHarness(0)
	h.s.Mount()

	h.s.Toggle()
	assert.Equal(t, Shown, h.s.Visibility())
	assert.True(t, h.s.Pending())

	h.s.Toggle()
	assert.True(t, h.s.Hidden())
	assert.False(t, h.s.Pending())

	h.s.Hide()
	assert.Equal(t, []Visibility{Hidden, Shown, Hidden}, h.changes)

	h.s.Show()
	h.s.Show()
	assert.Equal(t, []Visibility{Hidden, Shown, Hidden, Shown}, h.changes)
	assert.True(t, h.s.Pending())
}

func TestSetHideDelayRearmsPendingTimer(t *testing.T) {
	h := newHarness(time.Second)
	h.s.Mount()
	h.s.HandleEnter()
	h.s.SetHideDelay(3 * time.Second)
	assert.Equal(t, 3*time.Second, h.s.Delay())

	h.expectQuiet(t, 2*time.Second)
	h.expectFire(t, time.Second)
	assert.True(t, h.s.Hidden())

	h.s.SetHideDelay(-1)
	assert.Equal(t, DefaultHideDelay, h.s.Delay())
}

func TestCloseStopsTimer(t *testing.T) {
	h := newHarness(time.Second)
	h.s.Mount()
	h.s.HandleEnter()
	h.s.Close()
	assert.False(t, h.s.Pending())
	h.expectQuiet(t, 5*time.Second)
	h.s.HandleEnter()
	assert.Equal(t, Shown, h.s.Visibility())
	assert.Len(t, h.changes, 2)
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "shown", Shown.String())
	assert.Equal(t, "hidden", Hidden.String())
}
