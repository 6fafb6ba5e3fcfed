// Package station wires the sensor, the clock, the display and the inputs
// into the two tasks of the environment dashboard.
package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/comm"
	"github.com/robotalks/envdash/pkg/comm/mqtt"
	"github.com/robotalks/envdash/pkg/comm/stream"
	"github.com/robotalks/envdash/pkg/comm/websocket"
	"github.com/robotalks/envdash/pkg/coord"
	"github.com/robotalks/envdash/pkg/display"
	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/input"
	"github.com/robotalks/envdash/pkg/power"
	"github.com/robotalks/envdash/pkg/rtc"
	"github.com/robotalks/envdash/pkg/sht3x"
	"github.com/robotalks/envdash/pkg/telemetry"
	"github.com/robotalks/envdash/pkg/timesync"
)

// Station is the assembled dashboard.
type Station struct {
	Config *Config
	Hub    *comm.Hub
	Loop   *fx.Loop
	Cyclic *Cyclic
	// Events is nil in degraded mode.
	Events *Events

	runnables []fx.Runnable
	closers   []io.Closer
}

// NewStation creates a Station from config, opening the hardware.
func (c *Config) NewStation() (*Station, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	loc, err := timesync.ParseZone(c.Timezone)
	if err != nil {
		return nil, err
	}
	pm, err := power.ParseMode(c.PowerMode)
	if err != nil {
		return nil, err
	}
	s := &Station{Config: c, Hub: comm.NewHub(0)}
	if err = s.setup(loc, pm); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Station) setup(loc *time.Location, pm power.Mode) error {
	c := s.Config
	bus, err := OpenBus(c.Bus)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, bus)
	sensor := sht3x.New(bus, &sht3x.Opts{Addr: c.SensorAddr})

	var clock rtc.Clock = rtc.NewSoft(loc)
	if c.RTCDevice != "" {
		dev, err := rtc.Open(c.RTCDevice)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, dev)
		clock = dev
	}

	var surfaces display.Multi
	if c.Terminal {
		surfaces = append(surfaces, display.NewTerminal(os.Stdout))
	}
	surfaces = append(surfaces, display.NewMirror(s.Hub))

	var network timesync.Network = InterfaceNetwork{}
	syncer := &Syncer{
		Synchronizer: timesync.New(network, timesync.NewNTPClient()),
		Clock:        clock,
		Timezone:     c.Timezone,
		Servers:      c.NTPServers,
	}

	var src telemetry.Source
	switch {
	case c.Co2Topic != "":
		msrc, err := telemetry.NewMQTTSource(c.Co2URL, c.Co2Topic)
		if err != nil {
			return fmt.Errorf("co2 source: %w", err)
		}
		s.runnables = append(s.runnables, msrc)
		src = msrc
	case c.Co2URL != "":
		src = telemetry.NewHTTPSource(c.Co2URL)
	}

	lock, err := coord.New(&coord.Opts{LockFile: c.LockFile})
	degraded := err != nil
	if degraded {
		glog.Errorf("station: %v, running without event task", err)
		lock, _ = coord.New(nil)
	}
	s.closers = append(s.closers, lock)

	s.Cyclic = NewCyclic(lock, c.SyncEvery(), c.SyncOnStart)
	s.Cyclic.Sensor = sensor
	s.Cyclic.Telemetry = src
	s.Cyclic.Clock = clock
	s.Cyclic.Network = network
	s.Cyclic.Battery = &SysfsBattery{}
	s.Cyclic.Surface = surfaces
	s.Cyclic.Publisher = s.Hub
	s.Cyclic.Syncer = syncer
	s.Loop = fx.NewLoop(c.Interval)
	s.Loop.Add(s.Cyclic)

	if !degraded {
		panel := input.NewPanel(c.LongPress)
		s.Events = NewEvents(lock, panel)
		s.Events.Surface = surfaces
		s.Events.Publisher = s.Hub
		s.Events.Syncer = syncer
		s.Events.Clock = clock
		s.Events.Power = power.New(pm)
		s.runnables = append(s.runnables, &input.Remote{
			Panel:         panel,
			Commands:      s.Hub.Commands(),
			AllowPowerOff: c.RemotePowerOff,
		})
		if c.Joystick > -2 {
			s.runnables = append(s.runnables, input.NewJoystick(panel, c.Joystick, c.Buttons))
		}
	}

	return s.setupComm()
}

func (s *Station) setupComm() error {
	c := s.Config
	if c.MQTTBrokerURL != "" {
		link, err := mqtt.NewLink(c.MQTTBrokerURL, s.Hub, mqtt.DeviceMeta{
			Device:   c.ResolveDeviceID(),
			Sensor:   "sht3x",
			Timezone: c.Timezone,
		})
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		s.runnables = append(s.runnables, link)
	}
	if c.Socket != "" {
		ln, err := stream.Listen(c.Socket, s.Hub)
		if err != nil {
			return fmt.Errorf("socket: %w", err)
		}
		s.runnables = append(s.runnables, ln)
	}
	if c.WebAddr != "" {
		s.runnables = append(s.runnables, fx.NamedRun("web", fx.RunFunc(s.serveWeb)))
	}
	return nil
}

func (s *Station) serveWeb(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.Handler(ctx, s.Hub))
	srv := &http.Server{Addr: s.Config.WebAddr, Handler: mux}
	err := fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run implements Runnable. It returns ErrHalted after power off was requested.
func (s *Station) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(ctx)
	runner.Go(s.runnables...)
	runner.Go(fx.NamedRun("loop", s.Loop))
	halted := make(chan struct{})
	if s.Events != nil {
		runner.Go(fx.NamedRun("events", fx.RunFunc(func(ctx context.Context) error {
			err := s.Events.Run(ctx)
			if errors.Is(err, ErrHalted) {
				close(halted)
				cancel()
			}
			return err
		})))
	}
	glog.Infof("station: running, interval %v", s.Config.Interval)
	err := runner.Wait()
	select {
	case <-halted:
		return ErrHalted
	default:
	}
	return err
}

// Close releases the hardware.
func (s *Station) Close() error {
	var errs fx.AggregatedError
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs.Add(s.closers[i].Close())
	}
	s.closers = nil
	return errs.Aggregate()
}
