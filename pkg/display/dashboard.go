package display

import (
	"fmt"

	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/timesync"
)

// Battery voltage shown is clamped to this range.
const (
	MinBatteryMv = 3300
	MaxBatteryMv = 4350
)

var weekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Weekday gives the short Japanese name, empty when out of range.
func Weekday(wday int) string {
	if wday < 0 || wday >= len(weekdays) {
		return ""
	}
	return weekdays[wday]
}

// Co2Band classifies a CO2 concentration.
type Co2Band int

// Bands, from fresh to alarming.
const (
	Co2White Co2Band = iota
	Co2Green
	Co2Yellow
	Co2Red
	Co2Alarm
)

var co2BandNames = [...]string{"white", "green", "yellow", "red", "alarm"}

func (b Co2Band) String() string {
	if b < 0 || int(b) >= len(co2BandNames) {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return co2BandNames[b]
}

// Co2BandOf classifies ppm.
func Co2BandOf(ppm uint16) Co2Band {
	switch {
	case ppm < 600:
		return Co2White
	case ppm < 1200:
		return Co2Green
	case ppm < 1500:
		return Co2Yellow
	case ppm < 2000:
		return Co2Red
	}
	return Co2Alarm
}

// ClampBattery limits mv to [MinBatteryMv, MaxBatteryMv].
func ClampBattery(mv int) int {
	if mv < MinBatteryMv {
		return MinBatteryMv
	}
	if mv > MaxBatteryMv {
		return MaxBatteryMv
	}
	return mv
}

// NetworkStatus gives OK or NG.
func NetworkStatus(connected bool) string {
	if connected {
		return "OK"
	}
	return "NG"
}

// Dashboard is the values shown every cycle, already converted.
type Dashboard struct {
	Clock     timesync.CalendarTime
	Co2       uint16
	Celsius   float32
	Humidity  uint8
	Connected bool
	BatteryMv int
	LastSync  timesync.CalendarTime
}

// Frame lays out the dashboard.
func (d *Dashboard) Frame() *msgs.Frame {
	lastSync := "pending"
	if d.LastSync.Synced() {
		lastSync = d.LastSync.String()
	}
	return &msgs.Frame{
		Lines: []string{
			d.Clock.Clock(),
			fmt.Sprintf("%04dppm [%s]", d.Co2, Co2BandOf(d.Co2)),
			fmt.Sprintf("%.1f℃", d.Celsius),
			fmt.Sprintf("%d%%", d.Humidity),
			fmt.Sprintf("%04d", d.Clock.Year),
			fmt.Sprintf("%02d/%02d", d.Clock.Month, d.Clock.Day),
			Weekday(d.Clock.Weekday),
			"WiFi: " + NetworkStatus(d.Connected),
			fmt.Sprintf("BAT : %04dmv", ClampBattery(d.BatteryMv)),
			"Sync: " + lastSync,
		},
	}
}

// SyncReport is shown after a requested time sync.
type SyncReport struct {
	Err      error
	Resolved timesync.CalendarTime
	RTC      timesync.CalendarTime
}

// Frame lays out the report.
func (r *SyncReport) Frame() *msgs.Frame {
	var lines []string
	if r.Err == nil {
		lines = append(lines,
			"Succeeded to sync time",
			"getLocalTime:"+r.Resolved.Date()+" "+r.Resolved.Clock())
	} else {
		lines = append(lines, "Failed to sync time: "+r.Err.Error())
	}
	lines = append(lines, "RTC         :"+r.RTC.Date()+" "+r.RTC.Clock())
	return &msgs.Frame{Lines: lines}
}

// Farewell is shown before power off.
func Farewell() *msgs.Frame {
	return &msgs.Frame{Lines: []string{"Good bye.."}, Refresh: true}
}
