// Package monitor owns the sensing loop and all mutable run state.
//
// One mutex serializes everything that touches the sensor and light
// channels: periodic ticks, manual scans and calibrations. External
// readers never take that lock — they get the last published snapshot
// from the status tracker.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/chute-monitor/internal/calibration"
	"github.com/sweeney/chute-monitor/internal/frame"
	"github.com/sweeney/chute-monitor/internal/light"
	"github.com/sweeney/chute-monitor/internal/logic"
	"github.com/sweeney/chute-monitor/internal/mqtt"
	"github.com/sweeney/chute-monitor/internal/status"
)

// CalibrationSamples is how many valid readings a calibration averages.
const CalibrationSamples = 5

// DefaultCalibrationTimeout bounds how long a calibration waits for its
// samples before giving up.
const DefaultCalibrationTimeout = 30 * time.Second

// ErrCalibrationTimeout is returned when a calibration cannot collect
// enough valid readings before its deadline. The stored calibration is
// left unchanged.
var ErrCalibrationTimeout = errors.New("monitor: calibration timed out before collecting enough samples")

// CalibrationResult reports a completed calibration.
type CalibrationResult struct {
	Inches  float64
	Samples int
}

// Monitor ties the frame decoder, inference engine, calibration store
// and light driver together.
type Monitor struct {
	decoder   *frame.Decoder
	light     light.Driver
	store     *calibration.Store
	tracker   *status.Tracker
	publisher mqtt.Publisher // may be nil

	// mu serializes ticks, manual scans and calibrations.
	mu              sync.Mutex
	consecutiveFull int
	lastStatus      logic.Status
	lastCommand     light.Command

	cfgMu sync.Mutex
	cfg   logic.Config

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	calibrationTimeout time.Duration
	now                func() time.Time
}

// New creates a Monitor. A nil light driver is replaced with a no-op
// one; a nil publisher disables MQTT events.
func New(decoder *frame.Decoder, lt light.Driver, store *calibration.Store, tracker *status.Tracker, publisher mqtt.Publisher, cfg logic.Config) *Monitor {
	if lt == nil {
		lt = light.NopDriver{}
	}
	m := &Monitor{
		decoder:            decoder,
		light:              lt,
		store:              store,
		tracker:            tracker,
		publisher:          publisher,
		cfg:                cfg,
		lastStatus:         logic.StatusUnknown,
		calibrationTimeout: DefaultCalibrationTimeout,
		now:                time.Now,
	}
	tracker.SetCalibration(store.Calibration())
	return m
}

// Config returns the current runtime tunables.
func (m *Monitor) Config() logic.Config {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	return m.cfg
}

// SetConfig updates the runtime tunables. Changes are in-memory only
// and take effect on the next tick.
func (m *Monitor) SetConfig(scanInterval time.Duration, confirmationCount int, ratioThreshold float64) error {
	if scanInterval <= 0 {
		return fmt.Errorf("monitor: scan interval must be positive, got %v", scanInterval)
	}
	if confirmationCount < 1 {
		return fmt.Errorf("monitor: confirmation count must be at least 1, got %d", confirmationCount)
	}
	if ratioThreshold <= 0 || ratioThreshold > 1 {
		return fmt.Errorf("monitor: ratio threshold must be in (0,1], got %v", ratioThreshold)
	}

	m.cfgMu.Lock()
	m.cfg = logic.Config{
		ScanInterval:          scanInterval,
		FullConfirmationCount: confirmationCount,
		FullRatioThreshold:    ratioThreshold,
	}
	m.cfgMu.Unlock()

	m.tracker.SetTunables(scanInterval.Milliseconds(), confirmationCount, ratioThreshold)
	log.Printf("monitor: config updated: interval=%v confirmation=%d threshold=%.2f",
		scanInterval, confirmationCount, ratioThreshold)
	return nil
}

// SetCalibrationTimeout overrides the calibration deadline. Values at
// or below zero keep the default.
func (m *Monitor) SetCalibrationTimeout(d time.Duration) {
	if d > 0 {
		m.calibrationTimeout = d
	}
}

// Running reports whether the periodic loop is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// Snapshot returns the last published view of the daemon state.
func (m *Monitor) Snapshot() status.Snapshot {
	return m.tracker.Snapshot()
}

// Start begins the periodic loop. Starting an already-running monitor
// is a no-op.
func (m *Monitor) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	m.tracker.SetRunning(true)

	m.clearLight()

	go m.loop(ctx)
	log.Printf("monitor: started (interval=%v)", m.Config().ScanInterval)
}

// Stop halts the periodic loop after the in-flight tick completes. The
// light keeps its last state, reflecting the last known chute state.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	if !m.running {
		m.runMu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.runMu.Unlock()

	cancel()
	<-done

	m.runMu.Lock()
	m.running = false
	m.runMu.Unlock()
	m.tracker.SetRunning(false)
	log.Printf("monitor: stopped")
}

// clearLight sends an explicit Off to drop stale hardware state before
// the first real status is known.
func (m *Monitor) clearLight() {
	m.mu.Lock()
	m.sendLight(light.CommandOff, true)
	m.mu.Unlock()
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	interval := m.Config().ScanInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.tick(); err != nil {
				// Sensor channel failure: sensing halts, status stays
				// Unknown until the daemon is restarted.
				log.Printf("monitor: halting periodic loop: %v", err)
				m.runMu.Lock()
				m.running = false
				m.cancel() // release the loop context; Stop no-ops after a self-halt
				m.runMu.Unlock()
				m.tracker.SetRunning(false)
				return
			}
			if next := m.Config().ScanInterval; next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// tick runs one full scan cycle. The returned error is non-nil only
// for a sensor channel failure.
func (m *Monitor) tick() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked()
}

// ScanOnce performs exactly one decode + inference + light update and
// returns the resulting snapshot. Usable whether or not the periodic
// loop is running; it is serialized against ticks and calibrations.
func (m *Monitor) ScanOnce() (status.Snapshot, error) {
	m.mu.Lock()
	err := m.scanLocked()
	m.mu.Unlock()

	if err != nil {
		return m.tracker.Snapshot(), fmt.Errorf("scan: %w", err)
	}
	return m.tracker.Snapshot(), nil
}

// scanLocked is the single tick body. Caller holds m.mu.
func (m *Monitor) scanLocked() error {
	now := m.now()
	cfg := m.Config()
	cal := m.store.Calibration()

	var (
		res    logic.Result
		dist   *float64
		reason string
		fatal  error
	)

	reading, err := m.decoder.Next(now)
	switch {
	case err == nil:
		d := reading.Inches
		dist = &d
		res = logic.Infer(d, cal, cfg, m.consecutiveFull)
		if res.Status == logic.StatusUnknown {
			if res.InvalidCalibration {
				reason = "calibration invalid"
			} else {
				reason = "not calibrated"
			}
		}
	case errors.Is(err, frame.ErrNoReading):
		// A missed reading trends to Unknown rather than retaining a
		// stale verdict — staleness must not mask a sensor failure.
		res = logic.Result{Status: logic.StatusUnknown}
		reason = "sensor timeout"
	default:
		res = logic.Result{Status: logic.StatusUnknown}
		reason = "sensor unavailable"
		fatal = err
	}

	m.consecutiveFull = res.ConsecutiveFull
	m.tracker.UpdateTick(res, dist, reason, now)

	if res.Status != m.lastStatus {
		m.logTransition(m.lastStatus, res, dist, reason)
		m.publishTransition(m.lastStatus, res, dist, now)
		m.lastStatus = res.Status
	}

	m.sendLight(light.ForStatus(res.Status), false)
	m.syncMQTTStatus()

	return fatal
}

func (m *Monitor) logTransition(from logic.Status, res logic.Result, dist *float64, reason string) {
	switch {
	case dist != nil:
		log.Printf("monitor: status %s -> %s (distance=%.2fin confidence=%.2f)",
			from, res.Status, *dist, res.Confidence)
	case reason != "":
		log.Printf("monitor: status %s -> %s (%s)", from, res.Status, reason)
	default:
		log.Printf("monitor: status %s -> %s", from, res.Status)
	}
}

func (m *Monitor) publishTransition(from logic.Status, res logic.Result, dist *float64, now time.Time) {
	if m.publisher == nil {
		return
	}
	err := m.publisher.Publish(mqtt.StatusEvent{
		Timestamp:  now,
		From:       from,
		To:         res.Status,
		Distance:   dist,
		Confidence: res.Confidence,
	})
	if err != nil {
		// Don't crash on publish failure.
		log.Printf("monitor: publish error: %v", err)
	}
}

// sendLight writes the command if it differs from the last one sent.
// Light errors are logged, never fatal — a disconnected light must not
// stop sensing.
func (m *Monitor) sendLight(cmd light.Command, force bool) {
	if !force && cmd == m.lastCommand {
		return
	}
	if err := m.light.Send(cmd); err != nil {
		log.Printf("monitor: light send %s failed: %v", cmd, err)
		return
	}
	m.lastCommand = cmd
}

func (m *Monitor) syncMQTTStatus() {
	if cs, ok := m.publisher.(mqtt.ConnectionStatus); ok {
		m.tracker.SetMQTTConnected(cs.IsConnected())
	}
}
