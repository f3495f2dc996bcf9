// Package frame decodes the distance sensor's serial frame protocol.
//
// The sensor emits fixed 8-byte frames:
//
//	0x59 0x59 DistL DistH StrL StrH Reserved Checksum
//
// Distance is an unsigned little-endian count of centimeters; the
// checksum is the sum of the first seven bytes mod 256. Bytes that
// precede a valid header are noise and are discarded.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

const (
	headerByte = 0x59
	frameLen   = 8
	bodyLen    = frameLen - 2 // everything after the header

	cmPerInch = 2.54
)

// Default valid range gate in inches. Readings outside it are treated
// as sensor noise and skipped.
const (
	DefaultMinInches = 2.0
	DefaultMaxInches = 800.0
)

// Scan bounds per call so a stream of pure garbage cannot spin forever
// between read timeouts.
const (
	maxFrameAttempts = 5
	maxHeaderScan    = 64
)

// ErrNoReading indicates no valid frame arrived before the port's read
// timeout (or scan budget). The tick proceeds without a reading; this
// is not a port failure.
var ErrNoReading = errors.New("frame: no valid reading")

// Reading is a validated distance measurement.
type Reading struct {
	Inches   float64
	Strength uint16
	Time     time.Time
}

// Decoder scans a serial byte stream for valid frames.
// It keeps no reading buffered across calls.
type Decoder struct {
	r         io.Reader
	minInches float64
	maxInches float64

	checksumFailures int
}

// NewDecoder creates a Decoder reading from r. Zero range bounds select
// the defaults.
func NewDecoder(r io.Reader, minInches, maxInches float64) *Decoder {
	if minInches <= 0 {
		minInches = DefaultMinInches
	}
	if maxInches <= 0 {
		maxInches = DefaultMaxInches
	}
	return &Decoder{r: r, minInches: minInches, maxInches: maxInches}
}

// Next returns the next valid reading from the stream, stamped with the
// given capture time. It returns ErrNoReading when the port times out
// or the scan budget is exhausted without a valid frame; any other
// error is a port failure and is fatal to the caller's loop. Frames
// with a bad checksum or an out-of-range distance are skipped silently.
func (d *Decoder) Next(now time.Time) (Reading, error) {
	for attempt := 0; attempt < maxFrameAttempts; attempt++ {
		if err := d.scanHeader(); err != nil {
			return Reading{}, err
		}

		var body [bodyLen]byte
		if err := d.readFull(body[:]); err != nil {
			return Reading{}, err
		}

		sum := uint8(headerByte + headerByte)
		for _, b := range body[:bodyLen-1] {
			sum += b
		}
		if sum != body[bodyLen-1] {
			d.checksumFailures++
			// First failure and every 50th afterwards, to keep a noisy
			// cable from flooding the log.
			if d.checksumFailures == 1 || d.checksumFailures%50 == 0 {
				log.Printf("frame: checksum mismatch (got 0x%02x want 0x%02x, total=%d)",
					body[bodyLen-1], sum, d.checksumFailures)
			}
			continue
		}

		cm := binary.LittleEndian.Uint16(body[0:2])
		strength := binary.LittleEndian.Uint16(body[2:4])
		inches := float64(cm) / cmPerInch

		if inches < d.minInches || inches > d.maxInches {
			continue
		}

		return Reading{Inches: inches, Strength: strength, Time: now}, nil
	}
	return Reading{}, ErrNoReading
}

// ChecksumFailures returns the number of frames dropped for a bad
// checksum since the decoder was created.
func (d *Decoder) ChecksumFailures() int {
	return d.checksumFailures
}

// scanHeader discards bytes until the two-byte frame header is found.
func (d *Decoder) scanHeader() error {
	for scanned := 0; scanned < maxHeaderScan; scanned++ {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		if b != headerByte {
			continue
		}
		b, err = d.readByte()
		if err != nil {
			return err
		}
		if b == headerByte {
			return nil
		}
	}
	return ErrNoReading
}

func (d *Decoder) readByte() (byte, error) {
	var b [1]byte
	n, err := d.r.Read(b[:])
	if n >= 1 {
		return b[0], nil
	}
	if err != nil {
		return 0, fmt.Errorf("sensor read: %w", err)
	}
	return 0, ErrNoReading // zero-byte read: port timed out
}

func (d *Decoder) readFull(p []byte) error {
	for off := 0; off < len(p); {
		n, err := d.r.Read(p[off:])
		if n == 0 {
			if err != nil {
				return fmt.Errorf("sensor read: %w", err)
			}
			return ErrNoReading // partial frame timed out
		}
		off += n
	}
	return nil
}

// Encode builds a valid frame for the given distance and strength.
// Used by simulators and tests.
func Encode(cm, strength uint16) []byte {
	f := make([]byte, frameLen)
	f[0] = headerByte
	f[1] = headerByte
	binary.LittleEndian.PutUint16(f[2:4], cm)
	binary.LittleEndian.PutUint16(f[4:6], strength)
	f[6] = 0 // reserved
	var sum uint8
	for _, b := range f[:frameLen-1] {
		sum += b
	}
	f[frameLen-1] = sum
	return f
}
