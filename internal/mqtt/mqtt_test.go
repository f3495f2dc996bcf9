package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/chute-monitor/internal/logic"
)

func ptr(f float64) *float64 { return &f }

func TestFormatPayload(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	event := StatusEvent{
		Timestamp:  ts,
		From:       logic.StatusEmpty,
		To:         logic.StatusFull,
		Distance:   ptr(8.5),
		Confidence: 0.92,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Chute.Event != "FULL" {
		t.Errorf("event: got %q, want FULL", p.Chute.Event)
	}
	if p.Chute.Previous != "EMPTY" {
		t.Errorf("previous: got %q, want EMPTY", p.Chute.Previous)
	}
	if p.Chute.Timestamp != "2026-03-01T10:30:00Z" {
		t.Errorf("timestamp: got %q", p.Chute.Timestamp)
	}
	if p.Chute.DistanceInches == nil || *p.Chute.DistanceInches != 8.5 {
		t.Errorf("distance: got %v, want 8.5", p.Chute.DistanceInches)
	}
	if p.Chute.Confidence != 0.92 {
		t.Errorf("confidence: got %v, want 0.92", p.Chute.Confidence)
	}
}

func TestFormatPayloadNilDistance(t *testing.T) {
	data, err := FormatPayload(StatusEvent{
		Timestamp: time.Now(),
		From:      logic.StatusFull,
		To:        logic.StatusUnknown,
	})
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Chute.DistanceInches != nil {
		t.Errorf("distance: got %v, want null", *p.Chute.DistanceInches)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	data, err := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "SIGTERM"})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", p.System.Event)
	}
	if p.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", p.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"custom":true}}`)
	data, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("raw payload not passed through: got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := StatusEvent{Timestamp: time.Now(), From: logic.StatusEmpty, To: logic.StatusFull}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].To != logic.StatusFull {
		t.Errorf("events: got %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("payloads: got %d, want 1", len(f.Payloads))
	}

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if len(f.SystemEvents) != 1 {
		t.Errorf("system events: got %d, want 1", len(f.SystemEvents))
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("Reset did not clear events")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	if err := f.Publish(StatusEvent{}); err == nil {
		t.Error("expected Publish error")
	}
	if len(f.Events) != 0 {
		t.Error("failed publish should not be recorded")
	}
}
