package station

import (
	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/coord"
	"github.com/robotalks/envdash/pkg/display"
	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/rtc"
	"github.com/robotalks/envdash/pkg/sht3x"
	"github.com/robotalks/envdash/pkg/telemetry"
	"github.com/robotalks/envdash/pkg/timesync"
)

// Sensor is implemented by *sht3x.Dev.
type Sensor interface {
	Read() error
	Reading() sht3x.Reading
}

// Cyclic is the periodic sampling step.
type Cyclic struct {
	Coord     *coord.Coordinator
	Sensor    Sensor
	Telemetry telemetry.Source
	Clock     rtc.Clock
	Network   timesync.Network
	Battery   Battery
	Surface   display.Surface
	Publisher display.Broadcaster
	Syncer    *Syncer
	// SyncEvery is the number of iterations between time syncs.
	SyncEvery uint64

	count       uint64
	syncPending bool
	clock       timesync.CalendarTime
}

// NewCyclic creates the step. With syncNow the first iteration also syncs.
func NewCyclic(c *coord.Coordinator, syncEvery uint64, syncNow bool) *Cyclic {
	return &Cyclic{
		Coord:       c,
		SyncEvery:   syncEvery,
		syncPending: syncNow,
		clock:       timesync.Never,
	}
}

// AddToLoop implements LoopAdder.
func (c *Cyclic) AddToLoop(l *fx.Loop) {
	l.AddStep(c)
}

// Step implements Step. The status event goes out after the lock is
// released.
func (c *Cyclic) Step(it fx.Iteration) error {
	var status *msgs.Status
	err := c.Coord.DoContext(it.Context(), "cyclic", func(shared *coord.Shared) (err error) {
		status, err = c.iterate(it, shared)
		return
	})
	if status != nil && c.Publisher != nil {
		if perr := c.Publisher.Broadcast(status); perr != nil {
			glog.V(2).Infof("station: publish status: %v", perr)
		}
	}
	return err
}

func (c *Cyclic) iterate(it fx.Iteration, shared *coord.Shared) (*msgs.Status, error) {
	ctx := it.Context()
	sensorOk := true
	if err := c.Sensor.Read(); err != nil {
		glog.Warningf("station: sensor: %v", err)
		sensorOk = false
	}
	reading := c.Sensor.Reading()
	co2 := telemetry.Co2OrZero(ctx, c.Telemetry)
	if now, err := c.Clock.Now(); err != nil {
		glog.Warningf("station: read rtc: %v", err)
	} else {
		c.clock = now
	}
	connected := c.Network != nil && c.Network.Connected()
	mv := c.batteryMillivolts()

	dash := &display.Dashboard{
		Clock:     c.clock,
		Co2:       co2,
		Celsius:   reading.Celsius,
		Humidity:  reading.Humidity,
		Connected: connected,
		BatteryMv: mv,
		LastSync:  shared.LastSync,
	}
	var errs fx.AggregatedError
	errs.Add(c.Surface.Show(dash.Frame()))
	errs.Add(c.Surface.Flush())

	if c.count++; c.count >= c.SyncEvery || c.syncPending {
		c.count, c.syncPending = 0, false
		c.Syncer.Sync(shared)
	}

	status := &msgs.Status{
		Celsius:   reading.Celsius,
		Humidity:  uint32(reading.Humidity),
		SensorOk:  sensorOk,
		Co2:       uint32(co2),
		Clock:     c.clock.String(),
		LastSync:  shared.LastSync.String(),
		Connected: connected,
		BatteryMv: uint32(display.ClampBattery(mv)),
		Iteration: it.Count(),
	}
	glog.V(2).Infof("station: iteration %d: %.2f°C %d%% %dppm", it.Count(), reading.Celsius, reading.Humidity, co2)
	return status, errs.Aggregate()
}

func (c *Cyclic) batteryMillivolts() int {
	if c.Battery == nil {
		return 0
	}
	mv, err := c.Battery.Millivolts()
	if err != nil {
		glog.V(2).Infof("station: battery: %v", err)
		return 0
	}
	return mv
}
