package station

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/coord"
	"github.com/robotalks/envdash/pkg/display"
	"github.com/robotalks/envdash/pkg/input"
	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/power"
	"github.com/robotalks/envdash/pkg/rtc"
)

// DefaultDwell is how long the sync report stays before the lock is released.
const DefaultDwell = time.Second

// ErrHalted is returned by the event task after powering off.
var ErrHalted = errors.New("station: halted")

// State of the event task.
type State int32

// States
const (
	StateIdle State = iota
	StateBusy
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateHalted:
		return "halted"
	}
	return "unknown"
}

// Poller is implemented by *input.Panel.
type Poller interface {
	Poll() input.Event
}

// Events is the input driven task.
type Events struct {
	Coord        *coord.Coordinator
	Input        Poller
	Surface      display.Surface
	Publisher    display.Broadcaster
	Syncer       *Syncer
	Clock        rtc.Clock
	Power        power.Switch
	PollInterval time.Duration
	Dwell        time.Duration

	sleep func(time.Duration)
	state int32
}

// NewEvents creates the event task with default timings.
func NewEvents(c *coord.Coordinator, in Poller) *Events {
	return &Events{
		Coord:        c,
		Input:        in,
		PollInterval: input.DefaultPollInterval,
		Dwell:        DefaultDwell,
		sleep:        time.Sleep,
	}
}

// Name implements Named.
func (e *Events) Name() string {
	return "events"
}

// State reports the current state.
func (e *Events) State() State {
	return State(atomic.LoadInt32(&e.state))
}

func (e *Events) setState(s State) {
	atomic.StoreInt32(&e.state, int32(s))
}

// Run implements Runnable. It returns ErrHalted after a long press.
func (e *Events) Run(ctx context.Context) error {
	interval := e.PollInterval
	if interval <= 0 {
		interval = input.DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := e.HandleContext(ctx, e.Input.Poll()); err != nil {
			return err
		}
	}
}

// Handle runs the critical section for one event.
func (e *Events) Handle(ev input.Event) error {
	return e.HandleContext(context.Background(), ev)
}

// HandleContext is Handle giving up waiting for the lock when ctx is done.
func (e *Events) HandleContext(ctx context.Context, ev input.Event) error {
	if e.State() == StateHalted {
		return ErrHalted
	}
	switch ev {
	case input.PressA:
		glog.Info("station: button A, sync time")
		var report *msgs.SyncReport
		err := e.do(ctx, "event:a", func(shared *coord.Shared) (err error) {
			report, err = e.syncAndReport(shared)
			return
		})
		if report != nil && e.Publisher != nil {
			if perr := e.Publisher.Broadcast(report); perr != nil {
				glog.V(2).Infof("station: publish sync report: %v", perr)
			}
		}
		return err
	case input.PressB:
		glog.Info("station: button B, refresh")
		return e.do(ctx, "event:b", func(*coord.Shared) error {
			return e.Surface.Refresh()
		})
	case input.LongPress:
		glog.Info("station: long press, power off")
		return e.halt(ctx)
	}
	return nil
}

func (e *Events) do(ctx context.Context, holder string, fn func(*coord.Shared) error) error {
	return e.Coord.DoContext(ctx, holder, func(shared *coord.Shared) error {
		e.setState(StateBusy)
		defer e.setState(StateIdle)
		if err := fn(shared); err != nil {
			glog.Warningf("station: %s: %v", holder, err)
		}
		return nil
	})
}

// syncAndReport returns the report to publish once the lock is released.
func (e *Events) syncAndReport(shared *coord.Shared) (*msgs.SyncReport, error) {
	if err := e.Surface.Refresh(); err != nil {
		return nil, err
	}
	resolved, err := e.Syncer.Sync(shared)
	rtcNow, rerr := e.Clock.Now()
	if rerr != nil {
		glog.Warningf("station: read rtc: %v", rerr)
	}
	report := &display.SyncReport{Err: err, Resolved: resolved, RTC: rtcNow}
	msg := &msgs.SyncReport{Ok: err == nil, Rtc: rtcNow.String(), Manual: true}
	if err != nil {
		msg.Error = err.Error()
	} else {
		msg.Resolved = resolved.String()
	}
	if err := e.Surface.Show(report.Frame()); err != nil {
		return msg, err
	}
	if err := e.Surface.Flush(); err != nil {
		return msg, err
	}
	e.sleep(e.Dwell)
	return msg, nil
}

// halt takes the lock and never gives it back: nothing may touch the
// peripherals once the farewell is shown.
func (e *Events) halt(ctx context.Context) error {
	if _, err := e.Coord.AcquireContext(ctx, "event:long"); err != nil {
		return err
	}
	e.setState(StateHalted)
	if err := e.Surface.Refresh(); err != nil {
		glog.Warningf("station: refresh: %v", err)
	}
	if err := e.Surface.Show(display.Farewell()); err != nil {
		glog.Warningf("station: farewell: %v", err)
	}
	if err := e.Surface.Flush(); err != nil {
		glog.Warningf("station: flush: %v", err)
	}
	if e.Power != nil {
		if err := e.Power.PowerOff(); err != nil {
			glog.Errorf("station: power off: %v", err)
		}
	}
	return ErrHalted
}
