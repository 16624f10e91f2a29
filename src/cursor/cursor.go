// Package cursor runs the pointer feedback loop: it samples the cursor position
// relative to the overlay window and hands each sample to the owner. Samples
// only feed observability; they never change the applied shape.
package cursor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"click-overlay/src/geometry"
)

const (
	DefaultInterval = 16 * time.Millisecond
	DefaultBackoff  = 50 * time.Millisecond
)

// Source reports the pointer position in window-relative DIPs.
type Source interface {
	CursorPosition(ctx context.Context) (geometry.Point, error)
}

// Options tunes a Poller. Zero values select the defaults.
type Options struct {
	Clock    clockwork.Clock
	Interval time.Duration
	Backoff  time.Duration
	Logger   *zap.Logger
}

// Stats counts poll outcomes since the poller was created.
type Stats struct {
	Samples  uint64 `json:"samples"`
	Failures uint64 `json:"failures"`
	Skipped  uint64 `json:"skipped"`
}

// Poller samples the cursor on a fixed cadence and backs off while the source
// fails. It keeps no state beyond the counters; the latest sample wins.
type Poller struct {
	src   Source
	sink  func(geometry.Point)
	clock clockwork.Clock
	log   *zap.Logger

	interval time.Duration
	backoff  time.Duration

	enabled  atomic.Bool
	samples  atomic.Uint64
	failures atomic.Uint64
	skipped  atomic.Uint64
	failLog  rate.Sometimes
}

// New returns an enabled poller delivering samples to sink. sink runs on the
// poller goroutine and must not block.
func New(src Source, sink func(geometry.Point), opts Options) *Poller {
	p := &Poller{
		src:      src,
		sink:     sink,
		clock:    opts.Clock,
		log:      opts.Logger,
		interval: opts.Interval,
		backoff:  opts.Backoff,
		failLog:  rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.backoff <= 0 {
		p.backoff = DefaultBackoff
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled suspends or resumes sampling. A disabled poller keeps ticking at
// the steady cadence without querying the source.
func (p *Poller) SetEnabled(on bool) {
	if p.enabled.Swap(on) != on {
		p.log.Debug("cursor sampling toggled", zap.Bool("enabled", on))
	}
}

// Enabled reports whether samples are being taken.
func (p *Poller) Enabled() bool { return p.enabled.Load() }

// Stats returns a snapshot of the counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Samples:  p.samples.Load(),
		Failures: p.failures.Load(),
		Skipped:  p.skipped.Load(),
	}
}

// Run samples once immediately, then keeps sampling until ctx is done. It
// releases its timer before returning.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Debug("cursor poller started",
		zap.Duration("interval", p.interval), zap.Duration("backoff", p.backoff))
	defer p.log.Debug("cursor poller stopped")

	delay := p.tick(ctx)
	for {
		t := p.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.Chan():
		}
		delay = p.tick(ctx)
	}
}

// tick takes one sample and returns the delay before the next one.
func (p *Poller) tick(ctx context.Context) time.Duration {
	if !p.enabled.Load() {
		p.skipped.Add(1)
		return p.interval
	}
	pt, err := p.src.CursorPosition(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return p.interval
		}
		n := p.failures.Add(1)
		p.failLog.Do(func() {
			p.log.Warn("cursor sample failed, backing off",
				zap.Error(err), zap.Uint64("failures", n), zap.Duration("retry_in", p.backoff))
		})
		return p.backoff
	}
	p.samples.Add(1)
	p.sink(pt)
	return p.interval
}
