//go:build linux

package rtc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/robotalks/envdash/pkg/timesync"
)

// Device is a hardware RTC exposed as /dev/rtcN. The kernel keeps it in
// C broken-down form: zero-based month, year relative to 1900.
type Device struct {
	file *os.File
}

// Open opens the RTC device at path, e.g. /dev/rtc0.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("rtc: %w", err)
	}
	return &Device{file: f}, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.file.Close()
}

// Now implements Clock.
func (d *Device) Now() (timesync.CalendarTime, error) {
	tm, err := unix.IoctlGetRTCTime(int(d.file.Fd()))
	if err != nil {
		return timesync.Never, fmt.Errorf("rtc: read: %w", err)
	}
	return timesync.FromBrokenDown(timesync.BrokenDown{
		Sec:  int(tm.Sec),
		Min:  int(tm.Min),
		Hour: int(tm.Hour),
		MDay: int(tm.Mday),
		Mon:  int(tm.Mon),
		Year: int(tm.Year),
		WDay: int(tm.Wday),
	}), nil
}

// Set implements Clock.
func (d *Device) Set(cal timesync.CalendarTime) error {
	tm := unix.RTCTime{
		Sec:  int32(cal.Second),
		Min:  int32(cal.Minute),
		Hour: int32(cal.Hour),
		Mday: int32(cal.Day),
		Mon:  int32(cal.Month - 1),
		Year: int32(cal.Year - 1900),
		Wday: int32(cal.Weekday),
	}
	if err := unix.IoctlSetRTCTime(int(d.file.Fd()), &tm); err != nil {
		return fmt.Errorf("rtc: write: %w", err)
	}
	return nil
}
