//go:build !linux

package rtc

import (
	"errors"

	"github.com/robotalks/envdash/pkg/timesync"
)

// Device is a hardware RTC, only available on Linux.
type Device struct{}

// Open fails on platforms without /dev/rtc.
func Open(path string) (*Device, error) {
	return nil, errors.New("rtc: hardware clock not supported on this platform")
}

// Close releases the device.
func (d *Device) Close() error { return nil }

// Now implements Clock.
func (d *Device) Now() (timesync.CalendarTime, error) {
	return timesync.Never, errors.New("rtc: not supported")
}

// Set implements Clock.
func (d *Device) Set(timesync.CalendarTime) error {
	return errors.New("rtc: not supported")
}
