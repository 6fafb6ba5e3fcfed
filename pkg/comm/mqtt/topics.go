package mqtt

import (
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Channel is the last level of a station topic. A station with device ID
// dev uses, under the queue's prefix:
//
//	dev/meta  retained JSON DeviceMeta, cleared by will when offline
//	dev/msg   events published by the station
//	dev/cmd   commands for the station
type Channel string

// Channels
const (
	ChannelMeta   Channel = "meta"
	ChannelEvents Channel = "msg"
	ChannelCmds   Channel = "cmd"
)

// AnyDevice matches every station in SubDevice.
const AnyDevice = "+"

// DeviceTopic builds the topic of a station channel.
func DeviceTopic(device string, ch Channel) string {
	return device + "/" + string(ch)
}

// SplitDeviceTopic is the reverse of DeviceTopic.
func SplitDeviceTopic(topic string) (device string, ch Channel, ok bool) {
	device, last, found := strings.Cut(topic, "/")
	if !found || device == "" || strings.Contains(last, "/") {
		return "", "", false
	}
	switch ch = Channel(last); ch {
	case ChannelMeta, ChannelEvents, ChannelCmds:
		return device, ch, true
	}
	return "", "", false
}

// DeviceHandler receives messages of station channels.
type DeviceHandler func(device string, ch Channel, payload []byte)

// SubDevice subscribes a channel of device, which may be AnyDevice.
func (q *Queue) SubDevice(device string, ch Channel, h DeviceHandler) *Subscription {
	return q.Sub(DeviceTopic(device, ch), func(topic string, payload []byte) {
		if dev, c, ok := SplitDeviceTopic(topic); ok {
			h(dev, c, payload)
		}
	})
}

// PubDevice publishes on a station channel. Meta is retained with QoS 1 so
// late subscribers still discover the station.
func (q *Queue) PubDevice(device string, ch Channel, payload []byte) paho.Token {
	if ch == ChannelMeta {
		return q.PubWith(DeviceTopic(device, ch), payload, 1, true)
	}
	return q.Pub(DeviceTopic(device, ch), payload)
}

// SetMetaWill makes the broker clear the retained meta of device when the
// client drops off.
func SetMetaWill(opts *paho.ClientOptions, topicPrefix, device string) {
	opts.SetBinaryWill(topicPrefix+DeviceTopic(device, ChannelMeta), nil, 1, true)
}
