//go:build !linux

package light

import "errors"

// Default pins (BCM numbering), mirrored here so flag defaults compile
// on any platform.
const (
	DefaultPinRed   = 26
	DefaultPinGreen = 16
)

// GPIODriver is not available on non-Linux platforms.
type GPIODriver struct{}

// NewGPIODriver returns an error on non-Linux platforms.
func NewGPIODriver(chipName string, pinRed, pinGreen int) (*GPIODriver, error) {
	return nil, errors.New("light: gpio not supported on this platform (requires Linux)")
}

// Send is not implemented on non-Linux platforms.
func (d *GPIODriver) Send(Command) error {
	return errors.New("light: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *GPIODriver) Close() error { return nil }
