// Package sh is the interactive console for a station.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/envdash/pkg/comm"
	"github.com/robotalks/envdash/pkg/comm/mqtt"
	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/remote"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *remote.Config
	Conn   *ConnLoop

	watch      int32
	statusLock sync.Mutex
	status     *msgs.Status
}

// ConnLoop is a running connection to a station.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	Device string
	Conn   *remote.Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *remote.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatMessage prints a message as "Type text".
func FormatMessage(msg msgs.Message) string {
	return fmt.Sprintf("%s %s", reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
}

// FormatMeta prints DeviceMeta into friendly string for display.
func FormatMeta(meta mqtt.DeviceMeta) string {
	s := meta.Device
	if meta.Sensor != "" {
		s += ": " + meta.Sensor
	}
	if meta.Timezone != "" {
		s += " (" + meta.Timezone + ")"
	}
	return s
}

// Print prints a message honoring OutputJSON.
func (s *Shell) Print(c *ishell.Context, msg msgs.Message) {
	if s.OutputJSON {
		out, err := json.Marshal(msg)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(FormatMessage(msg))
}

// Press sends a button press.
func (s *Shell) Press(c *ishell.Context, kind uint32) error {
	if err := s.Conn.Conn.Press(kind); err != nil {
		c.Err(err)
		return err
	}
	c.Println("OK")
	return nil
}

// LastStatus returns the latest status event, nil before the first one.
func (s *Shell) LastStatus() *msgs.Status {
	s.statusLock.Lock()
	defer s.statusLock.Unlock()
	return s.status
}

// SetWatch turns printing of events on or off.
func (s *Shell) SetWatch(on bool) {
	var v int32
	if on {
		v = 1
	}
	atomic.StoreInt32(&s.watch, v)
}

// Watching reports whether events are printed.
func (s *Shell) Watching() bool {
	return atomic.LoadInt32(&s.watch) != 0
}

// HandleMessage implements comm.Handler.
func (s *Shell) HandleMessage(_ context.Context, msg msgs.Message, _ *msgs.Typed) error {
	switch m := msg.(type) {
	case *msgs.Status:
		s.statusLock.Lock()
		s.status = m
		s.statusLock.Unlock()
	case *msgs.SyncReport:
		s.Shell.Println(FormatMessage(m))
		return nil
	}
	if s.Watching() {
		s.Shell.Println(FormatMessage(msg))
	}
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// SelectDevice discovers stations and asks for a choice.
func (s *Shell) SelectDevice() (*mqtt.DeviceMeta, error) {
	list, err := s.Config.Discover(context.TODO())
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	var index int
	if len(list) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 stations discovered in non-interactive mode")
		}
		items := make([]string, len(list))
		for n, meta := range list {
			items[n] = FormatMeta(meta)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &list[index], nil
}

// Connect connects to a station.
func (s *Shell) Connect(device string) error {
	connLoop := &ConnLoop{Device: device}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	conn, err := s.Config.Dial(connLoop.Ctx, device, comm.Handler(s))
	if err != nil {
		connLoop.Cancel()
		return err
	}
	connLoop.Conn = conn
	s.Disconnect()
	s.Conn = connLoop
	go func() {
		defer conn.Close()
		conn.Run(connLoop.Ctx)
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conn.Name))
	return nil
}

// Disconnect disconnects current station.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		device := s.Config.Device
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.URL)
		}
		if err := s.Connect(device); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.URL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers stations.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			list, err := s.Config.Discover(context.TODO())
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(list) == 0 {
					list = []mqtt.DeviceMeta{}
				}
				out, err := json.Marshal(list)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(list) == 0 {
				c.Println("No stations found")
				return
			}
			for _, meta := range list {
				c.Println(FormatMeta(meta))
			}
		},
	}

	// ConnectCmd connects a station.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var device string
			if len(c.Args) >= 1 {
				device = c.Args[0]
			} else {
				meta, err := s.SelectDevice()
				if err != nil {
					c.Err(err)
					return
				}
				if meta == nil {
					c.Err(fmt.Errorf("no station discovered"))
					return
				}
				device = meta.Device
			}
			if err := s.Connect(device); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current station.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := remote.NewConfig()
	New(conf).WithAutoConnect(conf.Device != "" || !isMQTT(conf.URL)).Run(flag.Args()...)
}

func isMQTT(u string) bool {
	return len(u) >= 7 && u[:7] == "mqtt://"
}
