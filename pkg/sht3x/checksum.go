package sht3x

import "github.com/sigurn/crc8"

// CRC8Params describes the frame checksum, also known as CRC-8/NRSC-5.
var CRC8Params = crc8.Params{
	Poly:   0x31,
	Init:   0xFF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0xF7,
	Name:   "CRC-8/SHT3X",
}

var crcTable = crc8.MakeTable(CRC8Params)

// Checksum computes the CRC of a data word as the sensor does.
func Checksum(data []byte) byte {
	return crc8.Checksum(data, crcTable)
}
