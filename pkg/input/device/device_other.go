//go:build !linux

package device

// Open implements Open on platforms without joystick support.
func Open(index int) (Device, error) {
	return nil, ErrUnsupported
}

// DetectAndOpen implements DetectAndOpen on platforms without joystick support.
func DetectAndOpen(startIndex int) (Device, error) {
	return nil, ErrUnsupported
}
