package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/comm"
	fx "github.com/robotalks/envdash/pkg/framework"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Remote reaches stations through the broker.
type Remote struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewRemote creates a Remote.
func NewRemote(brokerURL string) (*Remote, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Remote{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// Discover lists stations currently announcing their meta.
func (c *Remote) Discover(ctx context.Context) (res []DeviceMeta, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	defer q.Close()
	if token.Wait(); token.Error() != nil {
		return nil, token.Error()
	}
	resCh := make(chan DeviceMeta, 1)
	q.SubDevice(AnyDevice, ChannelMeta, func(device string, _ Channel, payload []byte) {
		if len(payload) == 0 {
			return
		}
		var meta DeviceMeta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.Warningf("mqtt: bad meta of %s: %v", device, err)
			return
		}
		if meta.Device == "" {
			meta.Device = device
		}
		select {
		case resCh <- meta:
		case <-time.After(time.Second):
		}
	})

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case meta := <-resCh:
			res = append(res, meta)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Connect opens a connection to a station.
func (c *Remote) Connect(ctx context.Context, device string, h comm.Handler) (*Conn, error) {
	q := NewQueue(c.options, c.topicPrefix)
	rw := NewPacketReadWriter(q).ForRemote(device)
	conn := &Conn{Queue: q, Pipe: comm.NewPipe(rw, h), rw: rw}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Conn is a connection to one station.
type Conn struct {
	Queue *Queue
	Pipe  *comm.Pipe

	rw *ReadWriter
}

// Run implements Runnable.
func (c *Conn) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	runner.Go(fx.NamedRun("mqtt-sub", c.rw))
	runner.Go(fx.NamedRun("mqtt-pipe", c.Pipe))
	return runner.Wait()
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.rw.Close()
	return c.Queue.Close()
}
