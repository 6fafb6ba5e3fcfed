package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Message is anything that can be carried in a Typed envelope.
type Message interface {
	proto.Message
	// TypeID identifies the message on the wire.
	TypeID() uint32
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Typed wraps an encoded message with its type.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// ErrUnknownType indicates an unregistered type ID.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrWrongKind indicates a command was sent as event or the reverse.
var ErrWrongKind = errors.New("message of wrong kind")

// MessageTypes maps type IDs to prototypes for decoding.
var MessageTypes = map[uint32]Message{}

// Register adds prototypes to MessageTypes.
func Register(msgs ...Message) {
	for _, m := range msgs {
		MessageTypes[m.TypeID()] = m
	}
}

// TypedFrom encodes msg into an envelope.
func TypedFrom(msg Message) (*Typed, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: msg.TypeID(), Message: data}, nil
}

// Decode decodes the enclosed message.
func (p *Typed) Decode() (Message, error) {
	prototype, ok := MessageTypes[p.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := prototype.NewMessage()
	if err := proto.Unmarshal(p.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the envelope.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(p)
}

// Kind gets message kind from type ID.
func (p *Typed) Kind() uint32 {
	return p.TypeId & TypeIDMaskKind
}

// IsCommand determines if the message is a command.
func (p *Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand
}

// IsEvent determines if the message is an event.
func (p *Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes an envelope.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}
