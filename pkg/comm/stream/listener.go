package stream

import (
	"context"
	"net"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/comm"
	fx "github.com/robotalks/envdash/pkg/framework"
)

// Listener attaches every accepted connection to a Hub.
type Listener struct {
	Listener net.Listener
	Hub      *comm.Hub
}

// Listen listens on a unix socket path or tcp address ("tcp://host:port").
func Listen(addr string, hub *comm.Hub) (*Listener, error) {
	network, address := "unix", addr
	if n, a, ok := cutScheme(addr); ok {
		network, address = n, a
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: ln, Hub: hub}, nil
}

// Dial connects to an address accepted by Listen.
func Dial(addr string) (*ReadWriter, error) {
	network, address := "unix", addr
	if n, a, ok := cutScheme(addr); ok {
		network, address = n, a
	}
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Name implements Named.
func (l *Listener) Name() string {
	return "stream:" + l.Listener.Addr().String()
}

// Run implements Runnable.
func (l *Listener) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, l.Listener, func() error {
		for {
			conn, err := l.Listener.Accept()
			if err != nil {
				return err
			}
			go func() {
				name := conn.RemoteAddr().String()
				if err := l.Hub.Serve(ctx, "stream:"+name, New(conn)); err != nil {
					glog.V(2).Infof("stream: %s closed: %v", name, err)
				}
			}()
		}
	})
}

func cutScheme(addr string) (network, address string, ok bool) {
	for _, scheme := range []string{"tcp", "unix"} {
		if rest, found := strings.CutPrefix(addr, scheme+"://"); found && rest != "" {
			return scheme, rest, true
		}
	}
	return "", "", false
}
