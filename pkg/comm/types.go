// Package comm carries typed messages over packet transports.
package comm

import (
	"context"

	"github.com/robotalks/envdash/pkg/msgs"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Handler receives decoded messages from a Pipe.
type Handler interface {
	HandleMessage(context.Context, msgs.Message, *msgs.Typed) error
}

// HandleFunc is func form of Handler.
type HandleFunc func(context.Context, msgs.Message, *msgs.Typed) error

// HandleMessage implements Handler.
func (f HandleFunc) HandleMessage(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	return f(ctx, msg, typed)
}
