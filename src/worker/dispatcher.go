// Package worker performs window-controller calls off the event-loop
// goroutine. Requests run one at a time in submission order, except that a new
// shape request replaces a shape request that has not started yet.
package worker

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"click-overlay/src/geometry"
	"click-overlay/src/winctl"
)

// DefaultCallTimeout bounds each controller call.
const DefaultCallTimeout = 2 * time.Second

// ToggleCallback receives the result of a devtools toggle. It runs on the
// dispatcher goroutine; callers post it back to their own goroutine.
type ToggleCallback func(open bool, err error)

type kind int

const (
	kindShape kind = iota
	kindClear
	kindIgnore
	kindTopmost
	kindDevTools
)

func (k kind) String() string {
	switch k {
	case kindShape:
		return "apply-shape"
	case kindClear:
		return "clear-shape"
	case kindIgnore:
		return "set-ignore-input"
	case kindTopmost:
		return "always-on-top"
	default:
		return "toggle-devtools"
	}
}

type job struct {
	kind    kind
	rects   []geometry.Rect
	ignore  bool
	forward bool
	target  string
	cb      ToggleCallback
}

// supersedable jobs only ever matter in their latest form.
func (j job) supersedable() bool { return j.kind == kindShape || j.kind == kindClear }

// Stats counts dispatcher activity.
type Stats struct {
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
	Superseded uint64 `json:"superseded"`
}

// Dispatcher serializes calls into a winctl.Controller.
type Dispatcher struct {
	ctrl    winctl.Controller
	log     *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}

	completed  atomic.Uint64
	failed     atomic.Uint64
	superseded atomic.Uint64
	failLog    rate.Sometimes
}

// New returns a dispatcher for ctrl. Run must be started for queued calls to
// execute.
func New(ctrl winctl.Controller, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		ctrl:    ctrl,
		log:     log,
		timeout: DefaultCallTimeout,
		wake:    make(chan struct{}, 1),
		failLog: rate.Sometimes{First: 3, Interval: 5 * time.Second},
	}
}

// ApplyShape queues a shape replacement.
func (d *Dispatcher) ApplyShape(rects []geometry.Rect) {
	d.submit(job{kind: kindShape, rects: slices.Clone(rects)})
}

// ClearShape queues removal of any explicit shape.
func (d *Dispatcher) ClearShape() { d.submit(job{kind: kindClear}) }

// SetIgnoreInput queues a click-through change.
func (d *Dispatcher) SetIgnoreInput(ignore, forward bool) {
	d.submit(job{kind: kindIgnore, ignore: ignore, forward: forward})
}

// SetAlwaysOnTop queues a stacking re-assertion.
func (d *Dispatcher) SetAlwaysOnTop() { d.submit(job{kind: kindTopmost}) }

// ToggleDevTools queues an inspector toggle for target; cb receives the result.
func (d *Dispatcher) ToggleDevTools(target string, cb ToggleCallback) {
	d.submit(job{kind: kindDevTools, target: target, cb: cb})
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Completed:  d.completed.Load(),
		Failed:     d.failed.Load(),
		Superseded: d.superseded.Load(),
	}
}

func (d *Dispatcher) submit(j job) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		if j.cb != nil {
			j.cb(false, winctl.ErrWindowUnavailable)
		}
		return false
	}
	if j.supersedable() {
		n := len(d.queue)
		d.queue = slices.DeleteFunc(d.queue, job.supersedable)
		d.superseded.Add(uint64(n - len(d.queue)))
	}
	d.queue = append(d.queue, j)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes queued calls until ctx is done. Calls still queued at that
// point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer func() {
		d.mu.Lock()
		d.closed = true
		dropped := d.queue
		d.queue = nil
		d.mu.Unlock()
		for _, j := range dropped {
			if j.cb != nil {
				j.cb(false, ctx.Err())
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.wake:
		}
		for {
			// Take one job at a time so later shape requests can still
			// replace queued ones while a slow call is in flight.
			j, ok := d.next()
			if !ok {
				break
			}
			d.exec(ctx, j)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func (d *Dispatcher) next() (job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return job{}, false
	}
	j := d.queue[0]
	d.queue = d.queue[1:]
	return j, true
}

func (d *Dispatcher) exec(ctx context.Context, j job) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var err error
	switch j.kind {
	case kindShape:
		err = d.ctrl.ApplyShape(cctx, j.rects)
	case kindClear:
		err = d.ctrl.ClearShape(cctx)
	case kindIgnore:
		err = d.ctrl.SetIgnoreInput(cctx, j.ignore, j.forward)
	case kindTopmost:
		err = d.ctrl.SetAlwaysOnTop(cctx)
	case kindDevTools:
		var open bool
		open, err = d.ctrl.ToggleContentDevTools(cctx, j.target)
		if j.cb != nil {
			j.cb(open, err)
		}
	}
	if err != nil {
		n := d.failed.Add(1)
		d.failLog.Do(func() {
			d.log.Warn("window call failed", zap.Stringer("call", j.kind), zap.Error(err), zap.Uint64("failures", n))
		})
		return
	}
	d.completed.Add(1)
	if j.kind == kindShape {
		d.log.Debug("shape applied", zap.Int("rects", len(j.rects)))
	}
}
