package light

import (
	"fmt"
	"io"
)

// Tower light single-byte commands. Each state change first turns the
// other lamps off, then turns the wanted lamp on, so the light never
// shows two colors at once.
const (
	cmdRedOn     = 0x11
	cmdYellowOn  = 0x12
	cmdGreenOn   = 0x14
	cmdRedOff    = 0x21
	cmdYellowOff = 0x22
	cmdGreenOff  = 0x24
	cmdBuzzerOff = 0x28
)

var commandBytes = map[Command][]byte{
	CommandOff:   {cmdBuzzerOff, cmdRedOff, cmdYellowOff, cmdGreenOff},
	CommandGreen: {cmdRedOff, cmdYellowOff, cmdGreenOn},
	CommandRed:   {cmdYellowOff, cmdGreenOff, cmdRedOn},
}

// SerialDriver drives a USB tower light over its serial channel.
type SerialDriver struct {
	port io.WriteCloser
}

// NewSerialDriver creates a driver writing to the given port.
func NewSerialDriver(port io.WriteCloser) *SerialDriver {
	return &SerialDriver{port: port}
}

// Send writes the command's byte sequence. The light expects one byte
// per write.
func (d *SerialDriver) Send(cmd Command) error {
	seq, ok := commandBytes[cmd]
	if !ok {
		return fmt.Errorf("light: unknown command %q", cmd)
	}
	for _, b := range seq {
		if _, err := d.port.Write([]byte{b}); err != nil {
			return fmt.Errorf("light write 0x%02x: %w", b, err)
		}
	}
	return nil
}

// Close turns the light off and closes the port.
func (d *SerialDriver) Close() error {
	// Best effort; the port may already be gone.
	d.Send(CommandOff)
	return d.port.Close()
}
