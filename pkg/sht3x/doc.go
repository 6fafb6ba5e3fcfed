// Package sht3x reads a Sensirion SHT3x temperature/humidity sensor over I²C.
//
// One measurement is a single-shot command (0x2C06, clock stretching, high
// repeatability) followed by a fixed settling delay and a six byte frame:
//
//	[tempHigh, tempLow, tempCRC, humHigh, humLow, humCRC]
//
// Both words are protected by a CRC-8 (polynomial 0x31, init 0xFF). Raw words
// are converted with integer shifts, dividing by 65536 instead of 65535; the
// resulting bias (about 0.002%) is kept so readings match the firmware this
// driver replaces.
//
// The driver does not arbitrate the bus between goroutines issuing other
// transactions. Callers sharing the bus must hold their own lock across Read.
package sht3x
