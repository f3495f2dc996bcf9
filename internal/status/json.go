package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event              string          `json:"event,omitempty"`
	EventReason        string          `json:"event_reason,omitempty"`
	Status             string          `json:"status"`
	Reason             string          `json:"reason,omitempty"`
	DistanceInches     *float64        `json:"distance_inches"`
	Confidence         float64         `json:"confidence"`
	ConsecutiveFull    int             `json:"consecutive_full_readings"`
	Running            bool            `json:"running"`
	Calibrated         bool            `json:"calibrated"`
	CalibrationInvalid bool            `json:"calibration_invalid,omitempty"`
	LastScan           string          `json:"last_scan,omitempty"`
	UptimeSeconds      int64           `json:"uptime_seconds"`
	StartTime          string          `json:"start_time"`
	Timestamp          string          `json:"timestamp"`
	MQTT               MQTTStatus      `json:"mqtt"`
	Calibration        CalibrationJSON `json:"calibration"`
	Config             ConfigJSON      `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CalibrationJSON is the JSON representation of the calibration bounds.
type CalibrationJSON struct {
	EmptyDistance *float64 `json:"empty_distance"`
	FullDistance  *float64 `json:"full_distance"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ScanIntervalMs        int64   `json:"scan_interval_ms"`
	FullConfirmationCount int     `json:"full_confirmation_count"`
	FullRatioThreshold    float64 `json:"full_ratio_threshold"`
	SensorPort            string  `json:"sensor_port"`
	LightDriver           string  `json:"light_driver"`
	Broker                string  `json:"broker,omitempty"`
	HTTPAddr              string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	st := string(snap.Status)
	if st == "" {
		st = "UNKNOWN"
	}

	inner := StatusInner{
		Status:             st,
		Reason:             snap.Reason,
		DistanceInches:     snap.Distance,
		Confidence:         snap.Confidence,
		ConsecutiveFull:    snap.ConsecutiveFull,
		Running:            snap.Running,
		Calibrated:         snap.Calibrated(),
		CalibrationInvalid: snap.CalibrationInvalid,
		UptimeSeconds:      int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:          snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:          snap.Now.UTC().Format(time.RFC3339),
		MQTT:               MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Calibration: CalibrationJSON{
			EmptyDistance: snap.Calibration.EmptyDistance,
			FullDistance:  snap.Calibration.FullDistance,
		},
		Config: ConfigJSON{
			ScanIntervalMs:        snap.Config.ScanIntervalMs,
			FullConfirmationCount: snap.Config.FullConfirmationCount,
			FullRatioThreshold:    snap.Config.FullRatioThreshold,
			SensorPort:            snap.Config.SensorPort,
			LightDriver:           snap.Config.LightDriver,
			Broker:                snap.Config.Broker,
			HTTPAddr:              snap.Config.HTTPAddr,
		},
	}
	if !snap.LastScan.IsZero() {
		inner.LastScan = snap.LastScan.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.EventReason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
