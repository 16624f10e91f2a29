// Package eventloop is the single goroutine that owns the engine. Hotkeys,
// control requests, cursor samples, timer expiry and window-controller results
// all reach the engine through it.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"click-overlay/src/control"
	"click-overlay/src/cursor"
	"click-overlay/src/engine"
	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/winctl"
	"click-overlay/src/worker"
)

// Options wires a Loop. Controller is required; Server is optional.
type Options struct {
	Controller   winctl.Controller
	Server       *control.Server
	Clock        clockwork.Clock
	HideDelay    time.Duration
	PollInterval time.Duration
	PollBackoff  time.Duration
	BarID        string
	HandleID     string
	// OnEvent observes every engine event on the loop goroutine.
	OnEvent func(engine.Event)
	Logger  *zap.Logger
}

// Loop is the single-threaded coordinator.
type Loop struct {
	ctrl   winctl.Controller
	srv    *control.Server
	disp   *worker.Dispatcher
	eng    *engine.Engine
	poller *cursor.Poller
	log    *zap.Logger

	onEvent  func(engine.Event)
	tasks    chan func()
	samples  chan geometry.Point
	hotkeyCh chan struct{}
	done     chan struct{}
	coalesce *coalescer

	group         *errgroup.Group
	groupCtx      context.Context
	pollerStarted bool
}

// New builds the loop and its engine. Nothing runs until Run.
func New(opts Options) *Loop {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loop{
		ctrl:     opts.Controller,
		srv:      opts.Server,
		log:      log,
		onEvent:  opts.OnEvent,
		tasks:    make(chan func(), 64),
		samples:  make(chan geometry.Point, 1),
		hotkeyCh: make(chan struct{}, 4),
		done:     make(chan struct{}),
	}
	l.coalesce = newCoalescer(l.Post)
	l.disp = worker.New(opts.Controller, log.Named("worker"))
	l.poller = cursor.New(opts.Controller, l.offerSample, cursor.Options{
		Clock:    opts.Clock,
		Interval: opts.PollInterval,
		Backoff:  opts.PollBackoff,
		Logger:   log.Named("cursor"),
	})
	l.eng = engine.New(engine.Options{
		Window:    l.disp,
		Sampler:   l.poller,
		Clock:     opts.Clock,
		Post:      l.Post,
		HideDelay: opts.HideDelay,
		BarID:     opts.BarID,
		HandleID:  opts.HandleID,
		Notify:    l.notify,
		Logger:    log.Named("engine"),
	})
	return l
}

// Post schedules fn on the loop goroutine. It is safe from any goroutine;
// work posted after the loop stopped is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Hotkey signals the mode toggle hotkey. Safe from any goroutine.
func (l *Loop) Hotkey() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// SetMode requests a mode change from outside the loop.
func (l *Loop) SetMode(m mode.Mode) {
	l.Post(func() {
		if err := l.eng.SetMode(m); err != nil {
			l.log.Warn("set mode rejected", zap.Error(err))
		}
	})
}

// RequestRecompute asks for a recompute. Bursts collapse into one.
func (l *Loop) RequestRecompute(trigger string) {
	l.coalesce.Post("recompute", func() { l.eng.RecomputeShape(trigger) })
}

// BarAction drives the control bar from outside the loop.
func (l *Loop) BarAction(action string) {
	l.Post(func() {
		if err := l.eng.BarAction(action, 0); err != nil {
			l.log.Warn("bar action rejected", zap.String("action", action), zap.Error(err))
		}
	})
}

// offerSample hands a cursor sample to the loop. Only the newest sample is
// kept; older ones are stale anyway.
func (l *Loop) offerSample(p geometry.Point) {
	for {
		select {
		case l.samples <- p:
			return
		default:
		}
		select {
		case <-l.samples:
		default:
		}
	}
}

func (l *Loop) notify(ev engine.Event) {
	if l.srv != nil {
		l.srv.Broadcast(control.NotificationFor(ev))
	}
	if l.onEvent != nil {
		l.onEvent(ev)
	}
}

// Run processes events until ctx is cancelled, then stops the poller, the
// control bar timer and the dispatcher before returning.
func (l *Loop) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	l.group, l.groupCtx = g, gctx
	g.Go(func() error { return l.disp.Run(gctx) })

	l.attach(gctx)

	var calls <-chan *control.Call
	if l.srv != nil {
		calls = l.srv.Calls()
	}
	l.log.Info("event loop started", zap.Stringer("mode", l.eng.Mode()))
	for {
		select {
		case <-gctx.Done():
			l.teardown()
			err := g.Wait()
			l.log.Info("event loop stopped")
			return err
		case <-l.hotkeyCh:
			m := l.eng.ToggleMode()
			l.log.Info("hotkey toggled mode", zap.Stringer("mode", m))
		case call := <-calls:
			call.Reply(l.handle(call.Request))
		case p := <-l.samples:
			l.eng.ObserveCursor(p)
		case fn := <-l.tasks:
			fn()
		}
	}
}

// attach reads the window's client size and re-asserts top-most stacking.
func (l *Loop) attach(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, worker.DefaultCallTimeout)
	defer cancel()
	if size, err := l.ctrl.ClientSize(cctx); err != nil {
		l.log.Warn("client size unavailable, waiting for first layout", zap.Error(err))
	} else {
		l.eng.SetClientSize(size)
	}
	l.disp.SetAlwaysOnTop()
}

// startPoller begins cursor feedback once the content surface has painted.
func (l *Loop) startPoller() {
	if l.pollerStarted || l.group == nil {
		return
	}
	l.pollerStarted = true
	l.poller.SetEnabled(l.eng.Mode() == mode.Smart)
	ctx := l.groupCtx
	l.group.Go(func() error { return l.poller.Run(ctx) })
}

func (l *Loop) teardown() {
	close(l.done)
	l.coalesce.Destroy()
	l.eng.Close()
}

// handle answers one control request on the loop goroutine.
func (l *Loop) handle(req control.Request) control.Response {
	switch req.Type {
	case control.TypeLayout:
		if req.Layout == nil {
			return control.Fail(errors.New("layout request without layout"))
		}
		rects := l.eng.ReplaceLayout(req.Layout.Layout(), req.Reason)
		l.startPoller()
		return control.Response{OK: true, Rects: rects}
	case control.TypePointer:
		if err := l.eng.PointerEvent(req.Target, req.Event); err != nil {
			return control.Fail(err)
		}
	case control.TypePointerMove:
		if l.eng.Mode() == mode.FullCapture {
			break
		}
		opaque, _ := l.eng.ObserveCursor(geometry.Point{X: req.X, Y: req.Y})
		return control.Response{OK: true, Opaque: &opaque}
	case control.TypeTab:
		return control.Response{OK: true, Rects: l.eng.SelectTab(req.Name)}
	case control.TypeDevToolsToggle:
		l.eng.ToggleDevTools(req.Target)
	case control.TypeSetMode, control.TypeSyncMode:
		m, err := mode.Parse(req.Mode)
		if err != nil {
			return control.Fail(err)
		}
		if req.Type == control.TypeSetMode {
			err = l.eng.SetMode(m)
		} else {
			err = l.eng.SyncMode(m)
		}
		if err != nil {
			return control.Fail(err)
		}
		return control.ModeResponse(l.eng.Mode())
	case control.TypeToggleMode:
		return control.ModeResponse(l.eng.ToggleMode())
	case control.TypeGetMode:
		return control.ModeResponse(l.eng.Mode())
	case control.TypeRecompute:
		return control.Response{OK: true, Rects: l.eng.RecomputeShape(engine.TriggerManual)}
	case control.TypeState:
		snap := l.eng.Snapshot()
		return control.Response{OK: true, State: &snap}
	case control.TypeBar:
		if err := l.eng.BarAction(req.Action, time.Duration(req.DelayMS)*time.Millisecond); err != nil {
			return control.Fail(err)
		}
	default:
		return control.Fail(fmt.Errorf("unknown request type %q", req.Type))
	}
	return control.Response{OK: true}
}
