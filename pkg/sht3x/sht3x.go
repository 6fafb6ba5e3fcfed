package sht3x

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultAddress is the I²C address with ADDR pin low.
	DefaultAddress i2c.Addr = 0x44
	// DefaultSettle is the minimum wait between command and read.
	DefaultSettle = 20 * time.Millisecond

	frameSize = 6
)

var cmdMeasure = []byte{0x2C, 0x06}

var (
	// ErrNoAck indicates the measurement command was not acknowledged.
	ErrNoAck = errors.New("sht3x: command not acknowledged")
	// ErrBus indicates the frame could not be read.
	ErrBus = errors.New("sht3x: bus read failed")
)

// ChecksumError reports a corrupted word in a frame.
type ChecksumError struct {
	Word     string
	Got      byte
	Expected byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sht3x: %s checksum mismatch: got 0x%02x, expected 0x%02x", e.Word, e.Got, e.Expected)
}

// Reading is the last valid measurement.
type Reading struct {
	Celsius  float32
	Humidity uint8
}

// Opts configures a Dev.
type Opts struct {
	Addr   i2c.Addr
	Settle time.Duration
}

// DefaultOpts are used when New gets nil options.
var DefaultOpts = Opts{
	Addr:   DefaultAddress,
	Settle: DefaultSettle,
}

// Dev is a handle to one sensor.
type Dev struct {
	d      i2c.Dev
	settle time.Duration
	sleep  func(time.Duration)

	mu      sync.Mutex
	reading Reading
}

// New creates a Dev on the bus. The sensor is not touched until Read.
func New(bus i2c.Bus, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	settle := opts.Settle
	if settle < DefaultSettle {
		settle = DefaultSettle
	}
	return &Dev{
		d:      i2c.Dev{Bus: bus, Addr: uint16(addr)},
		settle: settle,
		sleep:  time.Sleep,
	}
}

// Read performs one measurement. On success the stored reading is replaced;
// on failure it is left untouched.
func (dev *Dev) Read() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.d.Tx(cmdMeasure, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrNoAck, err)
	}
	dev.sleep(dev.settle)

	var frame [frameSize]byte
	if err := dev.d.Tx(nil, frame[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrBus, err)
	}
	if err := verify(frame[:]); err != nil {
		return err
	}
	dev.reading = Reading{
		Celsius:  float32(centiCelsius(word(frame[0], frame[1]))) / 100,
		Humidity: humidity(word(frame[3], frame[4])),
	}
	return nil
}

// Temperature returns the last valid temperature in °C.
func (dev *Dev) Temperature() float32 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.reading.Celsius
}

// Humidity returns the last valid relative humidity in whole percent.
func (dev *Dev) Humidity() uint8 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.reading.Humidity
}

// Reading returns the last valid measurement.
func (dev *Dev) Reading() Reading {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.reading
}

// Sense implements physic.SenseEnv. Pressure is not measured.
func (dev *Dev) Sense(e *physic.Env) error {
	if err := dev.Read(); err != nil {
		return err
	}
	r := dev.Reading()
	centi := math.Round(float64(r.Celsius) * 100)
	e.Temperature = physic.ZeroCelsius + physic.Temperature(centi)*10*physic.MilliKelvin
	e.Humidity = physic.RelativeHumidity(r.Humidity) * physic.PercentRH
	e.Pressure = 0
	return nil
}

// SenseContinuous implements physic.SenseEnv. Periodic sampling is driven by
// the caller so that each read happens inside its critical section.
func (dev *Dev) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("sht3x: continuous sensing is not supported")
}

// Precision implements physic.SenseEnv.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Humidity = physic.PercentRH
	e.Pressure = 0
}

// Halt implements conn.Resource. Single-shot mode has nothing to stop.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("sht3x{%s}", &dev.d)
}

func verify(frame []byte) error {
	if crc := Checksum(frame[0:2]); crc != frame[2] {
		return &ChecksumError{Word: "temperature", Got: frame[2], Expected: crc}
	}
	if crc := Checksum(frame[3:5]); crc != frame[5] {
		return &ChecksumError{Word: "humidity", Got: frame[5], Expected: crc}
	}
	return nil
}

func word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// centiCelsius approximates raw*175/65535 - 45 in 0.01 °C.
func centiCelsius(raw uint16) int32 {
	t := int32(raw)
	return ((4375 * t) >> 14) - 4500
}

// humidity approximates raw*100/65535, truncated to whole percent.
func humidity(raw uint16) uint8 {
	h := uint32(raw)
	h = (625 * h) >> 12
	return uint8(h / 100)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
