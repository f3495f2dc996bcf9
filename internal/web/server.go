// Package web provides the HTTP dashboard and control API for the
// chute-monitor daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/sweeney/chute-monitor/internal/monitor"
	"github.com/sweeney/chute-monitor/internal/status"
)

// Server serves the dashboard and the control API.
type Server struct {
	httpServer *http.Server
	mon        *monitor.Monitor
}

// New creates a Server driving the given monitor.
func New(addr string, mon *monitor.Monitor) *Server {
	s := &Server{mon: mon}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/calibrate/empty", s.handleCalibrate("empty", func() (monitor.CalibrationResult, error) {
		return mon.CalibrateEmpty()
	}))
	mux.HandleFunc("/api/calibrate/full", s.handleCalibrate("full", func() (monitor.CalibrationResult, error) {
		return mon.CalibrateFull()
	}))
	mux.HandleFunc("/api/clear-calibration", s.handleClearCalibration)
	mux.HandleFunc("/api/config", s.handleConfig)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.mon.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeRaw(w, http.StatusOK, status.FormatJSON(s.mon.Snapshot()))
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	snap, err := s.mon.ScanOnce()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, status.FormatJSON(snap))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	s.mon.Start()
	writeJSON(w, http.StatusOK, RunResponse{OK: true, Running: s.mon.Running()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	s.mon.Stop()
	writeJSON(w, http.StatusOK, RunResponse{OK: true, Running: s.mon.Running()})
}

func (s *Server) handleCalibrate(kind string, fn func() (monitor.CalibrationResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		res, err := fn()
		if errors.Is(err, monitor.ErrCalibrationTimeout) {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, CalibrateResponse{
			OK:             true,
			Kind:           kind,
			DistanceInches: res.Inches,
			Samples:        res.Samples,
		})
	}
}

func (s *Server) handleClearCalibration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if err := s.mon.ClearCalibration(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{OK: true, Running: s.mon.Running()})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, configFromMonitor(s.mon))
	case http.MethodPost:
		var req ConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}

		// Unspecified fields keep their current values.
		cur := s.mon.Config()
		interval := cur.ScanInterval
		count := cur.FullConfirmationCount
		threshold := cur.FullRatioThreshold
		if req.ScanIntervalMs != nil {
			interval = msToDuration(*req.ScanIntervalMs)
		}
		if req.FullConfirmationCount != nil {
			count = *req.FullConfirmationCount
		}
		if req.FullRatioThreshold != nil {
			threshold = *req.FullRatioThreshold
		}

		if err := s.mon.SetConfig(interval, count, threshold); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, configFromMonitor(s.mon))
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST only")
	}
}
