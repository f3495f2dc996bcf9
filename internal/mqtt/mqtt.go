// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/chute-monitor/internal/logic"
)

// Topic is the MQTT topic for chute status transition events.
const Topic = "facility/chute/monitor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "facility/chute/monitor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a status transition event to the broker.
	// Returns error if publishing fails (must not crash the process).
	Publish(event StatusEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StatusEvent represents a chute status transition to be published.
type StatusEvent struct {
	Timestamp  time.Time
	From       logic.Status
	To         logic.Status
	Distance   *float64 // inches; nil when the transition came from a missed reading
	Confidence float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Chute ChutePayload `json:"chute"`
}

// ChutePayload contains the status transition details.
type ChutePayload struct {
	Timestamp      string   `json:"timestamp"`
	Event          string   `json:"event"` // the new status, e.g. "FULL"
	Previous       string   `json:"previous"`
	DistanceInches *float64 `json:"distance_inches"`
	Confidence     float64  `json:"confidence"`
}

// FormatPayload creates the JSON payload for a status transition event.
func FormatPayload(event StatusEvent) ([]byte, error) {
	payload := Payload{
		Chute: ChutePayload{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			Event:          string(event.To),
			Previous:       string(event.From),
			DistanceInches: event.Distance,
			Confidence:     event.Confidence,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
