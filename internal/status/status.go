// Package status provides a thread-safe status tracker for the
// chute-monitor daemon. It is written by the monitor loop and read by
// HTTP handlers and MQTT publishers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/chute-monitor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	ScanIntervalMs        int64
	FullConfirmationCount int
	FullRatioThreshold    float64
	SensorPort            string
	LightDriver           string
	Broker                string
	HTTPAddr              string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Status          logic.Status
	Distance        *float64 // inches; nil when the last tick had no reading
	Confidence      float64
	ConsecutiveFull int

	// Reason explains an Unknown status ("not calibrated",
	// "sensor timeout", ...). Empty otherwise.
	Reason string

	Running            bool
	Calibration        logic.Calibration
	CalibrationInvalid bool

	LastScan  time.Time // zero until the first tick completes
	StartTime time.Time
	Now       time.Time

	MQTTConnected bool
	Config        Config
}

// Calibrated reports whether both calibration bounds are set.
func (s Snapshot) Calibrated() bool {
	return s.Calibration.Complete()
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Status:    logic.StatusUnknown,
			Reason:    "no scan yet",
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateTick publishes the result of one completed tick.
// Called by the monitor with its tick lock held, so readers always see
// a whole tick, never a torn one.
func (t *Tracker) UpdateTick(res logic.Result, distance *float64, reason string, at time.Time) {
	t.mu.Lock()
	t.snap.Status = res.Status
	t.snap.Distance = distance
	t.snap.Confidence = res.Confidence
	t.snap.ConsecutiveFull = res.ConsecutiveFull
	t.snap.CalibrationInvalid = res.InvalidCalibration
	t.snap.Reason = reason
	t.snap.LastScan = at
	t.mu.Unlock()
}

// SetRunning sets whether the periodic loop is active.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	t.snap.Running = running
	t.mu.Unlock()
}

// SetCalibration publishes new calibration bounds.
func (t *Tracker) SetCalibration(cal logic.Calibration) {
	t.mu.Lock()
	t.snap.Calibration = cal
	t.mu.Unlock()
}

// SetTunables publishes updated runtime configuration.
func (t *Tracker) SetTunables(scanIntervalMs int64, confirmationCount int, ratioThreshold float64) {
	t.mu.Lock()
	t.snap.Config.ScanIntervalMs = scanIntervalMs
	t.snap.Config.FullConfirmationCount = confirmationCount
	t.snap.Config.FullRatioThreshold = ratioThreshold
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
