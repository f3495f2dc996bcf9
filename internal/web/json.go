package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sweeney/chute-monitor/internal/monitor"
)

// RunResponse acknowledges a start/stop/clear request.
type RunResponse struct {
	OK      bool `json:"ok"`
	Running bool `json:"running"`
}

// CalibrateResponse reports a completed calibration.
type CalibrateResponse struct {
	OK             bool    `json:"ok"`
	Kind           string  `json:"kind"`
	DistanceInches float64 `json:"distance_inches"`
	Samples        int     `json:"samples"`
}

// ConfigRequest carries a partial tunables update. Nil fields keep
// their current values.
type ConfigRequest struct {
	ScanIntervalMs        *int64   `json:"scan_interval_ms"`
	FullConfirmationCount *int     `json:"full_confirmation_count"`
	FullRatioThreshold    *float64 `json:"full_ratio_threshold"`
}

// ConfigResponse is the current tunables.
type ConfigResponse struct {
	ScanIntervalMs        int64   `json:"scan_interval_ms"`
	FullConfirmationCount int     `json:"full_confirmation_count"`
	FullRatioThreshold    float64 `json:"full_ratio_threshold"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func configFromMonitor(mon *monitor.Monitor) ConfigResponse {
	cfg := mon.Config()
	return ConfigResponse{
		ScanIntervalMs:        cfg.ScanInterval.Milliseconds(),
		FullConfirmationCount: cfg.FullConfirmationCount,
		FullRatioThreshold:    cfg.FullRatioThreshold,
	}
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	writeRaw(w, code, data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

func writeRaw(w http.ResponseWriter, code int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
