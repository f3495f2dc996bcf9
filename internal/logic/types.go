// Package logic contains pure status inference for the chute monitor.
// This package has NO external dependencies (no serial, HTTP, OS, or
// time.Sleep). Prior state is always passed in by the caller.
package logic

import "time"

// Status represents the inferred state of the chute.
type Status string

const (
	StatusEmpty   Status = "EMPTY"
	StatusFull    Status = "FULL"
	StatusUnknown Status = "UNKNOWN"
)

// Calibration holds the two reference distances in inches.
// A nil bound means uncalibrated.
type Calibration struct {
	// EmptyDistance is the sensor reading with nothing in the chute.
	EmptyDistance *float64
	// FullDistance is the sensor reading with the chute full. Closer
	// reading = more material, so FullDistance < EmptyDistance is the
	// expected physical ordering.
	FullDistance *float64
}

// Complete reports whether both bounds are set.
func (c Calibration) Complete() bool {
	return c.EmptyDistance != nil && c.FullDistance != nil
}

// Degenerate reports whether both bounds are set and equal, which makes
// the fill ratio undefined.
func (c Calibration) Degenerate() bool {
	return c.Complete() && *c.EmptyDistance == *c.FullDistance
}

// Ordered reports whether the bounds follow the expected physical
// ordering. A violation is a configuration warning, not a hard error.
func (c Calibration) Ordered() bool {
	return c.Complete() && *c.FullDistance < *c.EmptyDistance
}

// Config holds the runtime inference tunables. In-memory only; not
// persisted across restarts.
type Config struct {
	ScanInterval          time.Duration
	FullConfirmationCount int
	FullRatioThreshold    float64
}

// DefaultConfig returns the tunables the daemon starts with.
func DefaultConfig() Config {
	return Config{
		ScanInterval:          time.Second,
		FullConfirmationCount: 3,
		FullRatioThreshold:    0.8,
	}
}

// Result is one inference outcome.
type Result struct {
	Status     Status
	Confidence float64

	// ConsecutiveFull is the updated count of consecutive
	// full-candidate readings. The caller feeds it back on the next
	// tick.
	ConsecutiveFull int

	// InvalidCalibration is set when the bounds are degenerate.
	InvalidCalibration bool
}
