package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Open opens a real serial port at the given path in 8N1 mode.
// A readTimeout of zero leaves reads blocking.
func Open(path string, baud int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
		}
	}

	return port, nil
}
