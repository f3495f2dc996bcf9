//go:build linux

package light

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Default pins (BCM numbering) for units wired with panel LEDs instead
// of the USB tower light.
const (
	DefaultPinRed   = 26
	DefaultPinGreen = 16
)

// GPIODriver drives red/green panel LEDs via the Linux GPIO character
// device.
type GPIODriver struct {
	chip  *gpiocdev.Chip
	red   *gpiocdev.Line
	green *gpiocdev.Line
}

// NewGPIODriver requests the two LED lines as outputs, initially low.
func NewGPIODriver(chipName string, pinRed, pinGreen int) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	redLine, err := chip.RequestLine(pinRed, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request red pin %d: %w", pinRed, err)
	}

	greenLine, err := chip.RequestLine(pinGreen, gpiocdev.AsOutput(0))
	if err != nil {
		redLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request green pin %d: %w", pinGreen, err)
	}

	return &GPIODriver{chip: chip, red: redLine, green: greenLine}, nil
}

// Send sets the LED lines for the command.
func (d *GPIODriver) Send(cmd Command) error {
	var red, green int
	switch cmd {
	case CommandRed:
		red = 1
	case CommandGreen:
		green = 1
	case CommandOff:
		// both low
	default:
		return fmt.Errorf("light: unknown command %q", cmd)
	}

	if err := d.red.SetValue(red); err != nil {
		return fmt.Errorf("set red pin: %w", err)
	}
	if err := d.green.SetValue(green); err != nil {
		return fmt.Errorf("set green pin: %w", err)
	}
	return nil
}

// Close lowers both lines and releases GPIO resources.
func (d *GPIODriver) Close() error {
	var errs []error

	if d.red != nil {
		if err := d.red.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("lower red pin: %w", err))
		}
		if err := d.red.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close red pin: %w", err))
		}
	}
	if d.green != nil {
		if err := d.green.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("lower green pin: %w", err))
		}
		if err := d.green.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close green pin: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
