package msgs

import (
	"github.com/golang/protobuf/proto"
)

// GroupStation is the type ID group of station messages.
const GroupStation uint32 = 0x00010000

// TypeIDs
const (
	StatusTypeID     uint32 = GroupStation | TypeIDKindEvent | 0x0000
	SyncReportTypeID uint32 = GroupStation | TypeIDKindEvent | 0x0001
	FrameTypeID      uint32 = GroupStation | TypeIDKindEvent | 0x0002
	ButtonTypeID     uint32 = GroupStation | TypeIDKindCommand | 0x0000
)

func init() {
	Register(&Status{}, &SyncReport{}, &Frame{}, &Button{})
}

// Status is published after every sampling iteration.
type Status struct {
	Celsius   float32 `protobuf:"fixed32,1,opt,name=celsius,proto3" json:"celsius,omitempty"`
	Humidity  uint32  `protobuf:"varint,2,opt,name=humidity,proto3" json:"humidity,omitempty"`
	SensorOk  bool    `protobuf:"varint,3,opt,name=sensor_ok,json=sensorOk,proto3" json:"sensor_ok,omitempty"`
	Co2       uint32  `protobuf:"varint,4,opt,name=co2,proto3" json:"co2,omitempty"`
	Clock     string  `protobuf:"bytes,5,opt,name=clock,proto3" json:"clock,omitempty"`
	LastSync  string  `protobuf:"bytes,6,opt,name=last_sync,json=lastSync,proto3" json:"last_sync,omitempty"`
	Connected bool    `protobuf:"varint,7,opt,name=connected,proto3" json:"connected,omitempty"`
	BatteryMv uint32  `protobuf:"varint,8,opt,name=battery_mv,json=batteryMv,proto3" json:"battery_mv,omitempty"`
	Iteration uint64  `protobuf:"varint,9,opt,name=iteration,proto3" json:"iteration,omitempty"`
}

// TypeID implements Message.
func (m *Status) TypeID() uint32 { return StatusTypeID }

// NewMessage implements Message.
func (m *Status) NewMessage() Message { return &Status{} }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// SyncReport is published after every time synchronization attempt.
type SyncReport struct {
	Ok       bool   `protobuf:"varint,1,opt,name=ok,proto3" json:"ok,omitempty"`
	Error    string `protobuf:"bytes,2,opt,name=error,proto3" json:"error,omitempty"`
	Resolved string `protobuf:"bytes,3,opt,name=resolved,proto3" json:"resolved,omitempty"`
	Rtc      string `protobuf:"bytes,4,opt,name=rtc,proto3" json:"rtc,omitempty"`
	Manual   bool   `protobuf:"varint,5,opt,name=manual,proto3" json:"manual,omitempty"`
}

// TypeID implements Message.
func (m *SyncReport) TypeID() uint32 { return SyncReportTypeID }

// NewMessage implements Message.
func (m *SyncReport) NewMessage() Message { return &SyncReport{} }

// ProtoMessage implements proto.Message.
func (m *SyncReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SyncReport) Reset() { *m = SyncReport{} }

// String implements proto.Message.
func (m *SyncReport) String() string { return proto.CompactTextString(m) }

// Frame mirrors what was drawn on the display.
type Frame struct {
	Lines   []string `protobuf:"bytes,1,rep,name=lines,proto3" json:"lines,omitempty"`
	Refresh bool     `protobuf:"varint,2,opt,name=refresh,proto3" json:"refresh,omitempty"`
}

// TypeID implements Message.
func (m *Frame) TypeID() uint32 { return FrameTypeID }

// NewMessage implements Message.
func (m *Frame) NewMessage() Message { return &Frame{} }

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// Button kinds
const (
	ButtonA    uint32 = 1
	ButtonB    uint32 = 2
	ButtonLong uint32 = 3
)

// Button presses a station button remotely.
type Button struct {
	Kind uint32 `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
}

// TypeID implements Message.
func (m *Button) TypeID() uint32 { return ButtonTypeID }

// NewMessage implements Message.
func (m *Button) NewMessage() Message { return &Button{} }

// ProtoMessage implements proto.Message.
func (m *Button) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Button) Reset() { *m = Button{} }

// String implements proto.Message.
func (m *Button) String() string { return proto.CompactTextString(m) }
