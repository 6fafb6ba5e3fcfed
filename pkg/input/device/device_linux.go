//go:build linux

package device

import (
	"bytes"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

type device struct {
	file        *os.File
	index       int
	name        string
	buttonCount uint8
}

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}

	errno := d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttonCount))
	if errno == 0 {
		var buf [128]byte
		if errno = d.ioctl(iocGNAME, unsafe.Pointer(&buf)); errno == 0 {
			if pos := bytes.IndexByte(buf[:], 0); pos >= 0 {
				d.name = string(buf[:pos])
			} else {
				d.name = string(buf[:])
			}
		}
	}
	if errno != 0 {
		d.file.Close()
		return nil, errno
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex.
// It returns nil without error when there is none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, nil
}

// Close implements Device.
func (d *device) Close() error {
	return d.file.Close()
}

// Index implements Device.
func (d *device) Index() int {
	return d.index
}

// Name implements Device.
func (d *device) Name() string {
	return d.name
}

// ButtonCount implements Device.
func (d *device) ButtonCount() int {
	return int(d.buttonCount)
}

// ReadEvent implements Device.
func (d *device) ReadEvent() (Event, error) {
	var buf [8]byte
	if _, err := d.file.Read(buf[:]); err != nil {
		return nil, err
	}
	return decodeEvent(buf[:])
}

func (d *device) ioctl(req uint, ptr unsafe.Pointer) unix.Errno {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}

const (
	// JSIOCGBUTTONS, JSIOCGNAME(128)
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80806a13
)
