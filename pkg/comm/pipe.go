package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/msgs"
)

// Pipe is a bi-directional pipe for typed messages.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    Handler

	sendLock sync.Mutex
	seq      uint32
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter, h Handler) *Pipe {
	return &Pipe{ReadWriter: rw, Handler: h}
}

// SendEvent sends a message which must be an event.
func (p *Pipe) SendEvent(msg msgs.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return msgs.ErrWrongKind
	}
	return p.SendTyped(typed)
}

// SendCommand sends a message which must be a command, numbering it.
func (p *Pipe) SendCommand(msg msgs.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsCommand() {
		return msgs.ErrWrongKind
	}
	return p.SendTyped(typed)
}

// SendTyped sends an envelope. Commands get the next sequence number.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	if typed.IsCommand() && typed.Sequence == 0 {
		if p.seq++; p.seq == 0 {
			p.seq++
		}
		typed.Sequence = p.seq
	}
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	return p.ReadWriter.WritePacket(pkt)
}

// WritePacket writes an encoded envelope as is.
func (p *Pipe) WritePacket(pkt []byte) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. Undecodable packets are dropped.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, p, func() error {
		for {
			pkt, err := p.ReadWriter.ReadPacket()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			typed, err := msgs.DecodeTyped(pkt)
			if err != nil {
				glog.Warningf("comm: bad packet: %v", err)
				continue
			}
			msg, err := typed.Decode()
			if err != nil {
				glog.Warningf("comm: decode %x: %v", typed.TypeId, err)
				continue
			}
			if h := p.Handler; h != nil {
				if err = h.HandleMessage(ctx, msg, typed); err != nil {
					return err
				}
			}
		}
	})
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
