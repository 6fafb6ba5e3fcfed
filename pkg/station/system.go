package station

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoBattery indicates no battery was found.
var ErrNoBattery = errors.New("station: no battery")

// Battery reports the battery voltage.
type Battery interface {
	Millivolts() (int, error)
}

// SysfsBattery reads voltage_now of a power supply.
type SysfsBattery struct {
	// Path of the power supply directory, empty to find the first battery.
	Path string
	Root string
}

// Millivolts implements Battery.
func (b *SysfsBattery) Millivolts() (int, error) {
	path := b.Path
	if path == "" {
		root := b.Root
		if root == "" {
			root = "/sys/class/power_supply"
		}
		matches, _ := filepath.Glob(filepath.Join(root, "BAT*"))
		if len(matches) == 0 {
			return 0, ErrNoBattery
		}
		path = matches[0]
	}
	data, err := os.ReadFile(filepath.Join(path, "voltage_now"))
	if err != nil {
		return 0, err
	}
	uv, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return uv / 1000, nil
}

// InterfaceNetwork is connected when any non-loopback interface is up and
// has an address.
type InterfaceNetwork struct{}

// Connected implements timesync.Network.
func (InterfaceNetwork) Connected() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addrs, err := iface.Addrs(); err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
