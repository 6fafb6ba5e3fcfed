//go:build linux

package power

import (
	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

func halt() error {
	glog.Info("power: halt")
	glog.Flush()
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF)
}
