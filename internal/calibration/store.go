// Package calibration persists the chute's two reference distances.
// The on-disk form is a small JSON record; a missing or corrupt file
// yields the unset default rather than an error.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/sweeney/chute-monitor/internal/logic"
)

// fileRecord is the durable representation. Absent fields mean
// "uncalibrated".
type fileRecord struct {
	EmptyDistance *float64 `json:"empty_distance,omitempty"`
	FullDistance  *float64 `json:"full_distance,omitempty"`
}

// Store holds the calibration and round-trips it to a JSON file.
// Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	cal  logic.Calibration
}

// NewStore creates a Store backed by the file at path. Call Load to
// pick up any persisted values.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted calibration. A missing or corrupt file
// leaves the calibration unset and returns nil.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.cal = logic.Calibration{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read calibration file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("calibration: corrupt file %s, starting uncalibrated: %v", s.path, err)
		s.cal = logic.Calibration{}
		return nil
	}

	s.cal = logic.Calibration{EmptyDistance: rec.EmptyDistance, FullDistance: rec.FullDistance}
	return nil
}

// Calibration returns a copy of the current calibration.
func (s *Store) Calibration() logic.Calibration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCal(s.cal)
}

// SetEmpty stores the empty-chute reference distance and persists.
func (s *Store) SetEmpty(inches float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cal.EmptyDistance = &inches
	return s.save()
}

// SetFull stores the full-chute reference distance and persists.
func (s *Store) SetFull(inches float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cal.FullDistance = &inches
	return s.save()
}

// Clear resets both bounds to unset and persists.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cal = logic.Calibration{}
	return s.save()
}

// save writes the current calibration. Caller holds s.mu.
func (s *Store) save() error {
	rec := fileRecord{EmptyDistance: s.cal.EmptyDistance, FullDistance: s.cal.FullDistance}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	return nil
}

func copyCal(c logic.Calibration) logic.Calibration {
	var out logic.Calibration
	if c.EmptyDistance != nil {
		v := *c.EmptyDistance
		out.EmptyDistance = &v
	}
	if c.FullDistance != nil {
		v := *c.FullDistance
		out.FullDistance = &v
	}
	return out
}
