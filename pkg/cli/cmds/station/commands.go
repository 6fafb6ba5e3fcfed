package station

import (
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/envdash/pkg/cli/sh"
	"github.com/robotalks/envdash/pkg/msgs"
)

func pressCmd(name, alias, help string, kind uint32) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Press(c, kind)
		}),
	}
}

var (
	// PressACmd presses button A: refresh and sync time.
	PressACmd = pressCmd("press.a", "a", "refresh and sync time", msgs.ButtonA)
	// PressBCmd presses button B: refresh.
	PressBCmd = pressCmd("press.b", "b", "refresh display", msgs.ButtonB)
	// PowerOffCmd long-presses the power button.
	PowerOffCmd = pressCmd("poweroff", "long", "power the station off", msgs.ButtonLong)

	// StatusCmd prints the last status received.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "[WAIT(e.g. 10s)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			status := s.LastStatus()
			if status == nil && len(c.Args) > 0 {
				wait, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid WAIT: %v", err))
					return
				}
				deadline := time.Now().Add(wait)
				for status == nil && time.Now().Before(deadline) {
					time.Sleep(100 * time.Millisecond)
					status = s.LastStatus()
				}
			}
			if status == nil {
				c.Err(fmt.Errorf("no status received yet"))
				return
			}
			s.Print(c, status)
		}),
	}

	// WatchCmd toggles printing of events.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[on|off]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			on := !s.Watching()
			if len(c.Args) > 0 {
				switch c.Args[0] {
				case "on":
					on = true
				case "off":
					on = false
				default:
					c.Err(fmt.Errorf("on or off expected"))
					return
				}
			}
			s.SetWatch(on)
			c.Printf("watch %v\n", on)
		},
	}
)

func init() {
	sh.AddCmds(
		&PressACmd,
		&PressBCmd,
		&PowerOffCmd,
		&StatusCmd,
		&WatchCmd,
	)
}
