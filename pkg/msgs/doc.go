// Package msgs defines the messages a station exchanges with remote peers
// (MQTT, websocket, local socket).
//
// Every message travels inside a Typed envelope. The type ID carries the
// kind (command or event) in its top bit, a group in the next 15 bits and
// the message number in the low 16 bits.
//
// Producer of events: the station.
// Producer of commands: remote consoles and browsers.
package msgs
