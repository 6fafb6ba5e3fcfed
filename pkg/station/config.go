package station

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/i2c"

	"github.com/robotalks/envdash/pkg/input"
	"github.com/robotalks/envdash/pkg/sht3x"
)

// Config defines everything needed to build a Station.
type Config struct {
	// Bus is the periph I²C bus name, empty for the first one.
	Bus        string   `yaml:"bus"`
	SensorAddr i2c.Addr `yaml:"sensor_addr"`

	// Interval between two cyclic iterations, 5s to 10s.
	Interval    time.Duration `yaml:"interval"`
	NTPServers  []string      `yaml:"ntp_servers"`
	Timezone    string        `yaml:"timezone"`
	SyncOnStart bool          `yaml:"sync_on_start"`
	// RTCDevice is e.g. /dev/rtc0. Empty uses the system clock.
	RTCDevice string `yaml:"rtc_device"`
	// LockFile is flock(2)ed around every critical section.
	LockFile string `yaml:"lock_file"`

	// Co2URL is the monitor's JSON endpoint, or a broker URL when Co2Topic
	// is set.
	Co2URL   string `yaml:"co2_url"`
	Co2Topic string `yaml:"co2_topic"`

	// MQTTBrokerURL e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string `yaml:"mqtt_url"`
	DeviceID      string `yaml:"device_id"`
	// Socket is a unix socket path (or tcp://addr) for local tools.
	Socket string `yaml:"socket"`
	// WebAddr serves the websocket mirror at /ws.
	WebAddr string `yaml:"web_addr"`

	// Joystick is the device index, -1 to detect, -2 to disable.
	Joystick  int           `yaml:"joystick"`
	Buttons   input.Mapping `yaml:"buttons"`
	LongPress time.Duration `yaml:"long_press"`

	PowerMode string `yaml:"power_mode"`
	// RemotePowerOff lets remote peers power the station off. Peers are not
	// authenticated.
	RemotePowerOff bool `yaml:"remote_power_off"`
	// Terminal draws the dashboard on stdout.
	Terminal bool `yaml:"terminal"`
}

// Interval bounds.
const (
	MinInterval = 5 * time.Second
	MaxInterval = 10 * time.Second
)

var defaultConfig = Config{
	SensorAddr:  sht3x.DefaultAddress,
	Interval:    MaxInterval,
	NTPServers:  []string{"ntp.nict.jp"},
	Timezone:    "JST-9",
	SyncOnStart: true,
	Joystick:    -1,
	Buttons:     input.DefaultMapping,
	LongPress:   input.DefaultLongPress,
	PowerMode:   "halt",
	Terminal:    true,
}

func init() {
	if val := os.Getenv("ENVDASH_CONFIG"); val != "" {
		if err := defaultConfig.LoadFile(val); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	if val := os.Getenv("ENVDASH_BUS"); val != "" {
		defaultConfig.Bus = val
	}
	if val := os.Getenv("ENVDASH_NTP"); val != "" {
		defaultConfig.NTPServers = splitList(val)
	}
	if val := os.Getenv("ENVDASH_TZ"); val != "" {
		defaultConfig.Timezone = val
	}
	if val := os.Getenv("ENVDASH_CO2_URL"); val != "" {
		defaultConfig.Co2URL = val
	}
	if val := os.Getenv("ENVDASH_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ENVDASH_LOCK_FILE"); val != "" {
		defaultConfig.LockFile = val
	}
	if val := os.Getenv("ENVDASH_POWER"); val != "" {
		defaultConfig.PowerMode = val
	}
}

// SetupFlags sets command line flags. Values from -config apply at the point
// the flag appears, so later flags override the file.
func SetupFlags() {
	flag.Func("config", "YAML config file", defaultConfig.LoadFile)
	flag.StringVar(&defaultConfig.Bus, "bus", defaultConfig.Bus, "I2C bus name")
	flag.Var(&defaultConfig.SensorAddr, "addr", "Sensor I2C address")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Sampling interval")
	flag.Func("ntp", "Comma separated NTP servers, at most 3 (default ntp.nict.jp)", func(s string) error {
		defaultConfig.NTPServers = splitList(s)
		return nil
	})
	flag.StringVar(&defaultConfig.Timezone, "tz", defaultConfig.Timezone, "Timezone, POSIX (JST-9) or IANA name")
	flag.BoolVar(&defaultConfig.SyncOnStart, "sync-on-start", defaultConfig.SyncOnStart, "Synchronize time in the first iteration")
	flag.StringVar(&defaultConfig.RTCDevice, "rtc", defaultConfig.RTCDevice, "RTC device, empty for system clock")
	flag.StringVar(&defaultConfig.LockFile, "lock-file", defaultConfig.LockFile, "Lock file shared with other bus users")
	flag.StringVar(&defaultConfig.Co2URL, "co2-url", defaultConfig.Co2URL, "CO2 monitor URL")
	flag.StringVar(&defaultConfig.Co2Topic, "co2-topic", defaultConfig.Co2Topic, "CO2 topic when co2-url is a broker")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID, default derived from machine ID")
	flag.StringVar(&defaultConfig.Socket, "socket", defaultConfig.Socket, "Control socket")
	flag.StringVar(&defaultConfig.WebAddr, "web", defaultConfig.WebAddr, "Websocket mirror listen address")
	flag.IntVar(&defaultConfig.Joystick, "joystick", defaultConfig.Joystick, "Joystick index, -1 to detect, -2 to disable")
	flag.IntVar(&defaultConfig.Buttons.A, "button-a", defaultConfig.Buttons.A, "Joystick button for A")
	flag.IntVar(&defaultConfig.Buttons.B, "button-b", defaultConfig.Buttons.B, "Joystick button for B")
	flag.IntVar(&defaultConfig.Buttons.Power, "button-power", defaultConfig.Buttons.Power, "Joystick button for power")
	flag.StringVar(&defaultConfig.PowerMode, "power", defaultConfig.PowerMode, "Power off mode: halt, exit, none")
	flag.BoolVar(&defaultConfig.RemotePowerOff, "remote-power-off", defaultConfig.RemotePowerOff, "Accept long press from remote peers")
	flag.BoolVar(&defaultConfig.Terminal, "terminal", defaultConfig.Terminal, "Draw dashboard on stdout")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.NTPServers = append([]string(nil), defaultConfig.NTPServers...)
	return &conf
}

// LoadFile decodes a YAML file over c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err = yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate checks values which cannot be defaulted.
func (c *Config) Validate() error {
	if c.Interval < MinInterval || c.Interval > MaxInterval {
		return fmt.Errorf("interval %v out of range [%v, %v]", c.Interval, MinInterval, MaxInterval)
	}
	if n := len(c.NTPServers); n == 0 || n > 3 {
		return fmt.Errorf("1 to 3 NTP servers required, got %d", n)
	}
	return nil
}

// SyncEvery is the number of iterations between periodic time syncs,
// about a week.
func (c *Config) SyncEvery() uint64 {
	return SyncEvery(c.Interval)
}

// SyncEvery computes iterations per week for interval.
func SyncEvery(interval time.Duration) uint64 {
	secs := uint64(interval / time.Second)
	if secs == 0 {
		secs = 1
	}
	return 7 * 24 * 3600 / secs
}

// ResolveDeviceID fills DeviceID from the machine ID when empty.
func (c *Config) ResolveDeviceID() string {
	if c.DeviceID == "" {
		id, err := machineid.ProtectedID("envdash")
		if err != nil {
			host, _ := os.Hostname()
			id = host
		}
		if len(id) > 12 {
			id = id[:12]
		}
		c.DeviceID = id
	}
	return c.DeviceID
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
