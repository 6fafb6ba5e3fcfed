package mqtt

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// WriteTimeout bounds waiting for the broker to take a packet.
var WriteTimeout = 5 * time.Second

// ErrWriteTimeout indicates the broker did not acknowledge in time.
var ErrWriteTimeout = errors.New("mqtt: write timeout")

// ReadWriter implements comm.PacketReadWriter over two channels of one
// station: packets arrive on In and are written to Out.
type ReadWriter struct {
	Queue  *Queue
	Device string
	In     Channel
	Out    Channel

	packetCh  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 1),
		done:     make(chan struct{}),
	}
}

// ForDevice is the station side: commands in, events out.
func (p *ReadWriter) ForDevice(device string) *ReadWriter {
	p.Device, p.In, p.Out = device, ChannelCmds, ChannelEvents
	return p
}

// ForRemote is the tool side: events in, commands out.
func (p *ReadWriter) ForRemote(device string) *ReadWriter {
	p.Device, p.In, p.Out = device, ChannelEvents, ChannelCmds
	return p
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.PubDevice(p.Device, p.Out, pkt)
	if !token.WaitTimeout(WriteTimeout) {
		return ErrWriteTimeout
	}
	return token.Error()
}

// Run implements Runnable. It keeps In subscribed until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.SubDevice(p.Device, p.In, p.handleMsg)
	defer sub.Close()
	defer p.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// Close stops delivering packets. Pending reads return io.EOF.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, _ Channel, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}
