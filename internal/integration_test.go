package internal

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/chute-monitor/internal/calibration"
	"github.com/sweeney/chute-monitor/internal/frame"
	"github.com/sweeney/chute-monitor/internal/light"
	"github.com/sweeney/chute-monitor/internal/logic"
	"github.com/sweeney/chute-monitor/internal/monitor"
	"github.com/sweeney/chute-monitor/internal/mqtt"
	"github.com/sweeney/chute-monitor/internal/serialport"
	"github.com/sweeney/chute-monitor/internal/status"
)

// TestIntegrationFullFlow drives the complete pipeline from serial
// frames to light commands and MQTT events using fakes: an empty
// reading, then three confirmed full readings.
func TestIntegrationFullFlow(t *testing.T) {
	port := serialport.NewFakePort(
		frame.Encode(110, 400), // 43.3in — clearly empty
		frame.Encode(25, 400),  // 9.8in — at the full bound
		frame.Encode(25, 400),
		frame.Encode(25, 400),
	)
	fakeLight := light.NewFakeDriver()
	publisher := mqtt.NewFakePublisher()
	store := calibration.NewStore(filepath.Join(t.TempDir(), "cal.json"))
	if err := store.SetEmpty(100); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFull(9.8425); err != nil { // 25 cm
		t.Fatal(err)
	}

	tracker := status.NewTracker(time.Now(), status.Config{})
	mon := monitor.New(frame.NewDecoder(port, 0, 0), fakeLight, store, tracker, publisher, logic.Config{
		ScanInterval:          time.Second,
		FullConfirmationCount: 3,
		FullRatioThreshold:    0.8,
	})

	wantStatus := []logic.Status{
		logic.StatusEmpty,
		logic.StatusEmpty, // full candidate, unconfirmed
		logic.StatusEmpty,
		logic.StatusFull, // third consecutive full reading
	}
	for i, want := range wantStatus {
		snap, err := mon.ScanOnce()
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
		if snap.Status != want {
			t.Errorf("scan %d: status %s, want %s", i, snap.Status, want)
		}
	}

	// Light saw green for empty, red once full was confirmed.
	cmds := fakeLight.Sent()
	want := []light.Command{light.CommandGreen, light.CommandRed}
	if len(cmds) != len(want) {
		t.Fatalf("light commands: got %v, want %v", cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("light command %d: got %s, want %s", i, cmds[i], want[i])
		}
	}

	// Two transitions published: UNKNOWN→EMPTY, EMPTY→FULL.
	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.Events))
	}
	if publisher.Events[0].From != logic.StatusUnknown || publisher.Events[0].To != logic.StatusEmpty {
		t.Errorf("event 0: %s -> %s", publisher.Events[0].From, publisher.Events[0].To)
	}
	if publisher.Events[1].From != logic.StatusEmpty || publisher.Events[1].To != logic.StatusFull {
		t.Errorf("event 1: %s -> %s", publisher.Events[1].From, publisher.Events[1].To)
	}

	for i, payload := range publisher.Payloads {
		var parsed mqtt.Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Errorf("payload %d: invalid JSON: %v", i, err)
			continue
		}
		if parsed.Chute.Timestamp == "" {
			t.Errorf("payload %d: missing timestamp", i)
		}
		if parsed.Chute.Event == "" {
			t.Errorf("payload %d: missing event", i)
		}
		if parsed.Chute.DistanceInches == nil {
			t.Errorf("payload %d: missing distance", i)
		}
	}
}

// TestIntegrationCalibrateThenMonitor runs both calibrations from
// scripted frames, then verifies inference uses the stored bounds and
// that the bounds survive a reload from disk.
func TestIntegrationCalibrateThenMonitor(t *testing.T) {
	chunks := make([][]byte, 0, 13)
	for i := 0; i < 5; i++ {
		chunks = append(chunks, frame.Encode(254, 400)) // 100 in — empty reference
	}
	for i := 0; i < 5; i++ {
		chunks = append(chunks, frame.Encode(25, 400)) // 9.84 in — full reference
	}
	for i := 0; i < 3; i++ {
		chunks = append(chunks, frame.Encode(25, 400)) // monitoring at the full bound
	}

	port := serialport.NewFakePort(chunks...)
	calPath := filepath.Join(t.TempDir(), "cal.json")
	store := calibration.NewStore(calPath)
	tracker := status.NewTracker(time.Now(), status.Config{})
	mon := monitor.New(frame.NewDecoder(port, 0, 0), light.NewFakeDriver(), store, tracker, mqtt.NewFakePublisher(), logic.Config{
		ScanInterval:          time.Second,
		FullConfirmationCount: 3,
		FullRatioThreshold:    0.8,
	})

	empty, err := mon.CalibrateEmpty()
	if err != nil {
		t.Fatalf("CalibrateEmpty: %v", err)
	}
	if empty.Inches != 100 {
		t.Errorf("empty reference: got %v, want 100", empty.Inches)
	}

	full, err := mon.CalibrateFull()
	if err != nil {
		t.Fatalf("CalibrateFull: %v", err)
	}
	if full.Inches >= empty.Inches {
		t.Fatalf("full reference %v not below empty %v", full.Inches, empty.Inches)
	}

	var last status.Snapshot
	for i := 0; i < 3; i++ {
		last, err = mon.ScanOnce()
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	if last.Status != logic.StatusFull {
		t.Errorf("status after 3 full readings: got %s, want FULL", last.Status)
	}

	// Bounds persisted: a fresh store sees the same calibration.
	reloaded := calibration.NewStore(calPath)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	cal := reloaded.Calibration()
	if cal.EmptyDistance == nil || *cal.EmptyDistance != 100 {
		t.Errorf("reloaded empty: got %v, want 100", cal.EmptyDistance)
	}
	if cal.FullDistance == nil || *cal.FullDistance != full.Inches {
		t.Errorf("reloaded full: got %v, want %v", cal.FullDistance, full.Inches)
	}
}

// TestIntegrationSensorTimeoutGoesUnknown verifies a calibrated,
// previously-empty chute trends to Unknown when readings stop.
func TestIntegrationSensorTimeoutGoesUnknown(t *testing.T) {
	port := serialport.NewFakePort(
		frame.Encode(110, 400),
		nil, // timeout
	)
	fakeLight := light.NewFakeDriver()
	publisher := mqtt.NewFakePublisher()
	store := calibration.NewStore(filepath.Join(t.TempDir(), "cal.json"))
	store.SetEmpty(40)
	store.SetFull(10)

	tracker := status.NewTracker(time.Now(), status.Config{})
	mon := monitor.New(frame.NewDecoder(port, 0, 0), fakeLight, store, tracker, publisher, logic.DefaultConfig())

	snap, err := mon.ScanOnce()
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if snap.Status != logic.StatusEmpty {
		t.Fatalf("first scan: got %s, want EMPTY", snap.Status)
	}

	snap, err = mon.ScanOnce()
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if snap.Status != logic.StatusUnknown {
		t.Errorf("second scan: got %s, want UNKNOWN", snap.Status)
	}
	if snap.Reason != "sensor timeout" {
		t.Errorf("reason: got %q", snap.Reason)
	}

	// The light dropped back to off, and the Unknown transition carried
	// no distance.
	cmds := fakeLight.Sent()
	if len(cmds) != 2 || cmds[1] != light.CommandOff {
		t.Errorf("light commands: got %v, want [GREEN OFF]", cmds)
	}
	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.Events))
	}
	if publisher.Events[1].To != logic.StatusUnknown || publisher.Events[1].Distance != nil {
		t.Errorf("unknown event: %+v", publisher.Events[1])
	}
}

// TestIntegrationLifecycleEvents verifies the startup/shutdown system
// events carry a full status snapshot as their payload.
func TestIntegrationLifecycleEvents(t *testing.T) {
	publisher := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), status.Config{
		ScanIntervalMs: 1000,
		Broker:         "tcp://192.168.1.200:1883",
	})

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		t.Fatalf("startup publish: %v", err)
	}

	snap = tracker.Snapshot()
	shutdown := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	}
	if err := publisher.PublishSystem(shutdown); err != nil {
		t.Fatalf("shutdown publish: %v", err)
	}

	if len(publisher.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(publisher.SystemEvents))
	}
	if publisher.SystemEvents[0].Event != "STARTUP" || publisher.SystemEvents[1].Event != "SHUTDOWN" {
		t.Errorf("event order: %s, %s", publisher.SystemEvents[0].Event, publisher.SystemEvents[1].Event)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(publisher.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("startup payload: invalid JSON: %v", err)
	}
	if parsed.Status.Event != "STARTUP" {
		t.Errorf("startup payload event: got %q", parsed.Status.Event)
	}
	if parsed.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("startup payload broker: got %q", parsed.Status.Config.Broker)
	}

	if err := json.Unmarshal(publisher.SystemPayloads[1], &parsed); err != nil {
		t.Fatalf("shutdown payload: invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.EventReason != "SIGTERM" {
		t.Errorf("shutdown payload: event %q reason %q", parsed.Status.Event, parsed.Status.EventReason)
	}
}
