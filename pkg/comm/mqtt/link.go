package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/comm"
)

// DeviceMeta is published retained on device/meta while the station is up.
type DeviceMeta struct {
	Device   string `json:"device"`
	Sensor   string `json:"sensor,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Link attaches a station to a Hub through the broker.
type Link struct {
	Queue *Queue
	Hub   *comm.Hub
	Meta  DeviceMeta

	metaJSON []byte
}

// NewLink creates a Link for meta.Device.
func NewLink(brokerURL string, hub *comm.Hub, meta DeviceMeta) (*Link, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	SetMetaWill(opts, topicPrefix, meta.Device)
	if opts.ClientID == "" {
		opts.SetClientID("envdash:" + meta.Device)
	}
	l := &Link{
		Queue:    NewQueue(opts, topicPrefix),
		Hub:      hub,
		Meta:     meta,
		metaJSON: metaJSON,
	}
	l.Queue.OnConnect = func(*Queue) { l.onConnected() }
	return l, nil
}

// Name implements Named.
func (l *Link) Name() string {
	return "mqtt"
}

// Run implements Runnable. The broker may come and go; the client keeps
// reconnecting until ctx is done.
func (l *Link) Run(ctx context.Context) error {
	rw := NewPacketReadWriter(l.Queue).ForDevice(l.Meta.Device)
	l.Queue.Connect()
	go rw.Run(ctx)
	err := l.Hub.Serve(ctx, "mqtt:"+l.Meta.Device, rw)
	l.Queue.PubDevice(l.Meta.Device, ChannelMeta, nil).WaitTimeout(WriteTimeout)
	l.Queue.Close()
	return err
}

func (l *Link) onConnected() {
	glog.V(2).Infof("mqtt: announce %s", l.Meta.Device)
	l.Queue.PubDevice(l.Meta.Device, ChannelMeta, l.metaJSON)
}
