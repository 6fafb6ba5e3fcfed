package input

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/input/device"
	"github.com/robotalks/envdash/pkg/msgs"
)

// Mapping assigns joystick button indices to station buttons.
type Mapping struct {
	A     int
	B     int
	Power int
}

// DefaultMapping uses the first three buttons.
var DefaultMapping = Mapping{A: 0, B: 1, Power: 2}

func (m Mapping) lookup(index int) (Button, bool) {
	switch index {
	case m.A:
		return ButtonA, true
	case m.B:
		return ButtonB, true
	case m.Power:
		return ButtonPower, true
	}
	return 0, false
}

// Joystick feeds a Panel from a joystick device, reopening it when lost.
type Joystick struct {
	Panel       *Panel
	DeviceIndex int
	Mapping     Mapping
	Retry       time.Duration

	open func(index int) (device.Device, error)
}

// NewJoystick creates a Joystick. A negative index detects the device.
func NewJoystick(panel *Panel, index int, mapping Mapping) *Joystick {
	return &Joystick{
		Panel:       panel,
		DeviceIndex: index,
		Mapping:     mapping,
		Retry:       time.Second,
		open:        openDevice,
	}
}

func openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// Name implements Named.
func (j *Joystick) Name() string {
	return "joystick"
}

// Run implements Runnable.
func (j *Joystick) Run(ctx context.Context) error {
	for {
		dev, err := j.open(j.DeviceIndex)
		switch {
		case err == device.ErrUnsupported:
			glog.Warning("input: joystick unsupported, local buttons disabled")
			<-ctx.Done()
			return ctx.Err()
		case err != nil:
			glog.V(2).Infof("input: open joystick %d: %v", j.DeviceIndex, err)
		case dev == nil:
			glog.V(2).Info("input: no joystick detected")
		default:
			glog.Infof("input: joystick %d %q opened", dev.Index(), dev.Name())
			j.pump(ctx, dev)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(j.Retry):
		}
	}
}

func (j *Joystick) pump(ctx context.Context, dev device.Device) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			dev.Close()
		case <-done:
		}
	}()
	defer close(done)
	defer dev.Close()
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			if ctx.Err() == nil {
				glog.Warningf("input: joystick read: %v", err)
			}
			break
		}
		btn, ok := ev.(device.ButtonEvent)
		if !ok {
			continue
		}
		if b, mapped := j.Mapping.lookup(btn.Index()); mapped {
			glog.V(4).Infof("input: button %d: %v", btn.Index(), btn.Pressed())
			j.Panel.Set(b, btn.Pressed())
		}
	}
	for b := ButtonA; b < numButtons; b++ {
		j.Panel.Set(b, false)
	}
}

// Remote injects Button commands into a Panel. Peers are not
// authenticated, so a remote long press is dropped unless AllowPowerOff.
type Remote struct {
	Panel         *Panel
	Commands      <-chan msgs.Message
	AllowPowerOff bool
}

// Name implements Named.
func (r *Remote) Name() string {
	return "remote-input"
}

// Run implements Runnable.
func (r *Remote) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-r.Commands:
			btn, ok := msg.(*msgs.Button)
			if !ok {
				continue
			}
			ev := EventFromButton(btn)
			if ev == LongPress && !r.AllowPowerOff {
				glog.Warningf("input: remote power off not allowed")
				continue
			}
			glog.V(2).Infof("input: remote %s", ev)
			if !r.Panel.Inject(ev) {
				glog.Warningf("input: drop remote %s", ev)
			}
		}
	}
}
