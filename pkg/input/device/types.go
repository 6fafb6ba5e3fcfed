// Package device reads Linux joystick devices (/dev/input/jsN), used here as
// the station's push buttons.
package device

import (
	"errors"
	"io"
)

// ErrUnsupported is returned by Open where no joystick API exists.
var ErrUnsupported = errors.New("device: joystick not supported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}
