// Package serialport provides serial channel access with hardware abstraction.
// The real implementation uses go.bug.st/serial.
// The fake implementation allows testing without hardware.
package serialport

import (
	"io"
	"time"
)

// Port is the minimal interface the monitor needs from a serial channel.
//
// A Read that times out returns n == 0 with a nil error, matching the
// behavior of go.bug.st/serial ports with a read timeout set. Callers
// treat a zero-byte read as "no data within the timeout", not EOF.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds each Read call.
	SetReadTimeout(d time.Duration) error
}

// Default channel parameters for the hardware this daemon ships with.
const (
	DefaultSensorBaud = 115200 // TF-Luna LiDAR on the Pi UART
	DefaultLightBaud  = 9600   // USB tower light
)
