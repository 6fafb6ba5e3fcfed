// Package power turns the station off.
package power

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Mode selects how the station goes down.
type Mode string

// Modes
const (
	// ModeHalt powers the machine off. It needs CAP_SYS_BOOT.
	ModeHalt Mode = "halt"
	// ModeExit only terminates the process.
	ModeExit Mode = "exit"
	// ModeNone does nothing, for tests and development.
	ModeNone Mode = "none"
)

// ErrMode indicates an unknown Mode.
var ErrMode = errors.New("power: unknown mode")

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHalt, ModeExit, ModeNone:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrMode, s)
}

// Switch turns the station off.
type Switch interface {
	PowerOff() error
}

// SwitchFunc is the func form of Switch.
type SwitchFunc func() error

// PowerOff implements Switch.
func (f SwitchFunc) PowerOff() error { return f() }

// New creates the Switch for mode.
func New(mode Mode) Switch {
	switch mode {
	case ModeHalt:
		return SwitchFunc(halt)
	case ModeExit:
		return SwitchFunc(func() error {
			glog.Info("power: exit")
			glog.Flush()
			os.Exit(0)
			return nil
		})
	}
	return SwitchFunc(func() error {
		glog.Info("power: off (no-op)")
		return nil
	})
}
