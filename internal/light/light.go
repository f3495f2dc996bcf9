// Package light drives the external chute indicator light with hardware
// abstraction. The serial implementation talks to a USB tower light; the
// GPIO implementation drives red/green panel LEDs; the fake
// implementation allows testing without hardware.
package light

import "github.com/sweeney/chute-monitor/internal/logic"

// Command is one of the three light states.
type Command string

const (
	CommandOff   Command = "OFF"
	CommandGreen Command = "GREEN"
	CommandRed   Command = "RED"
)

// Driver sends tri-state commands to the light hardware.
// Send errors must be treated as non-fatal by callers — a disconnected
// light must not stop sensing.
type Driver interface {
	Send(cmd Command) error
	Close() error
}

// ForStatus maps a chute status to the light command shown for it.
// Unknown maps to Off so a stale or failed sensor is visible as "no
// light" rather than a misleading green or red.
func ForStatus(s logic.Status) Command {
	switch s {
	case logic.StatusFull:
		return CommandRed
	case logic.StatusEmpty:
		return CommandGreen
	default:
		return CommandOff
	}
}

// NopDriver discards commands. Used when no light hardware is
// configured.
type NopDriver struct{}

func (NopDriver) Send(Command) error { return nil }
func (NopDriver) Close() error       { return nil }
