// Package remote connects operator tools to a running station.
package remote

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/robotalks/envdash/pkg/comm"
	"github.com/robotalks/envdash/pkg/comm/mqtt"
	"github.com/robotalks/envdash/pkg/comm/stream"
	"github.com/robotalks/envdash/pkg/comm/websocket"
	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/msgs"
)

// ErrNoDiscovery indicates the URL scheme cannot list stations.
var ErrNoDiscovery = errors.New("remote: discovery needs an mqtt URL")

// Config provides common options to reach a station.
type Config struct {
	// Device is the station's device ID, only used over MQTT.
	Device string
	// URL is one of mqtt://host:port/prefix/, unix:///path, tcp://host:port,
	// ws://host:port/ws.
	URL string
}

var defaultConfig = Config{
	URL: "mqtt://localhost:1883/envdash/",
}

func init() {
	if val := os.Getenv("ENVDASH_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("ENVDASH_REMOTE_URL"); val != "" {
		defaultConfig.URL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Station device ID to connect.")
	flag.StringVar(&defaultConfig.URL, "url", defaultConfig.URL, "Station URL: mqtt://, unix://, tcp:// or ws://.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

func (c *Config) scheme() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid station URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "unix", "ws", "wss":
		return u.Scheme, nil
	case "":
		return "unix", nil
	}
	return "", fmt.Errorf("unknown station URL scheme: %q", u.Scheme)
}

// Discover lists stations announced on the broker.
func (c *Config) Discover(ctx context.Context) ([]mqtt.DeviceMeta, error) {
	scheme, err := c.scheme()
	if err != nil {
		return nil, err
	}
	if scheme != "mqtt" {
		return nil, ErrNoDiscovery
	}
	r, err := mqtt.NewRemote(c.URL)
	if err != nil {
		return nil, err
	}
	return r.Discover(ctx)
}

// Dial connects to device. Messages from the station go to h.
func (c *Config) Dial(ctx context.Context, device string, h comm.Handler) (*Conn, error) {
	scheme, err := c.scheme()
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "mqtt":
		if device == "" {
			return nil, fmt.Errorf("device ID required")
		}
		r, err := mqtt.NewRemote(c.URL)
		if err != nil {
			return nil, err
		}
		mc, err := r.Connect(ctx, device, h)
		if err != nil {
			return nil, err
		}
		return &Conn{Name: device, Pipe: mc.Pipe, runner: mc, closer: mc}, nil
	case "ws", "wss":
		rw, err := websocket.Dial(c.URL, "http://localhost/")
		if err != nil {
			return nil, err
		}
		return newPipeConn(c.URL, rw, h), nil
	default:
		rw, err := stream.Dial(c.URL)
		if err != nil {
			return nil, err
		}
		return newPipeConn(c.URL, rw, h), nil
	}
}

// Conn is a connection to a station.
type Conn struct {
	Name string
	Pipe *comm.Pipe

	runner fx.Runnable
	closer io.Closer
}

func newPipeConn(name string, rw comm.PacketReadWriter, h comm.Handler) *Conn {
	pipe := comm.NewPipe(rw, h)
	return &Conn{Name: name, Pipe: pipe, runner: pipe, closer: pipe}
}

// Run implements Runnable.
func (c *Conn) Run(ctx context.Context) error {
	return c.runner.Run(ctx)
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return c.closer.Close()
}

// Press sends a button press.
func (c *Conn) Press(kind uint32) error {
	return c.Pipe.SendCommand(&msgs.Button{Kind: kind})
}
