package monitor

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/chute-monitor/internal/frame"
)

// CalibrateEmpty samples the sensor with the chute empty and stores the
// averaged distance as the empty reference. Blocks until the samples
// are collected or the calibration deadline passes.
func (m *Monitor) CalibrateEmpty() (CalibrationResult, error) {
	return m.calibrate("empty", m.store.SetEmpty)
}

// CalibrateFull samples the sensor with the chute full and stores the
// averaged distance as the full reference.
func (m *Monitor) CalibrateFull() (CalibrationResult, error) {
	return m.calibrate("full", m.store.SetFull)
}

// ClearCalibration resets both bounds to unset and persists.
func (m *Monitor) ClearCalibration() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear calibration: %w", err)
	}
	m.consecutiveFull = 0
	m.tracker.SetCalibration(m.store.Calibration())
	log.Printf("monitor: calibration cleared")
	return nil
}

// calibrate collects CalibrationSamples valid readings, skipping ticks
// that yield none, bounded by an overall deadline so a dead sensor
// cannot hang the caller. On timeout the stored values are unchanged.
func (m *Monitor) calibrate(kind string, set func(float64) error) (CalibrationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(m.calibrationTimeout)
	var sum float64
	n := 0
	for n < CalibrationSamples {
		if m.now().After(deadline) {
			log.Printf("monitor: %s calibration timed out with %d/%d samples", kind, n, CalibrationSamples)
			return CalibrationResult{}, ErrCalibrationTimeout
		}

		r, err := m.decoder.Next(m.now())
		if errors.Is(err, frame.ErrNoReading) {
			continue // retry until the deadline
		}
		if err != nil {
			return CalibrationResult{}, fmt.Errorf("calibration read: %w", err)
		}

		sum += r.Inches
		n++
		log.Printf("monitor: %s calibration sample %d/%d: %.2fin", kind, n, CalibrationSamples, r.Inches)
	}

	mean := sum / float64(n)
	if err := set(mean); err != nil {
		return CalibrationResult{}, fmt.Errorf("save calibration: %w", err)
	}

	cal := m.store.Calibration()
	m.tracker.SetCalibration(cal)
	if cal.Complete() && !cal.Ordered() {
		log.Printf("monitor: calibration warning: full_distance %.2fin >= empty_distance %.2fin",
			*cal.FullDistance, *cal.EmptyDistance)
	}

	log.Printf("monitor: %s calibration: %.2fin from %d samples", kind, mean, n)
	return CalibrationResult{Inches: mean, Samples: n}, nil
}
