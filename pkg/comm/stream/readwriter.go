// Package stream frames packets on byte streams such as unix sockets.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxPacketSize bounds a single packet.
const MaxPacketSize = 1 << 20

// ErrTooLarge indicates a length prefix above MaxPacketSize.
var ErrTooLarge = errors.New("stream: packet too large")

// ReadWriter implements comm.PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter. Prefix and payload go out in one write.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return ErrTooLarge
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.ReadWriter.Write(buf)
	return err
}

// Close closes the underlying stream if it can be closed.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
