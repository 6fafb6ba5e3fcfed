//go:build !linux

package power

import "errors"

func halt() error {
	return errors.New("power: halt not supported on this platform")
}
