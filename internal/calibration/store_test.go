package calibration

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "chute_calibration.json"))
}

func TestLoadMissingFileIsUncalibrated(t *testing.T) {
	s := tempStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Calibration().Complete() {
		t.Error("expected uncalibrated store for missing file")
	}
}

func TestLoadCorruptFileIsUncalibrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chute_calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cal := s.Calibration()
	if cal.EmptyDistance != nil || cal.FullDistance != nil {
		t.Error("expected unset calibration for corrupt file")
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chute_calibration.json")

	s := NewStore(path)
	if err := s.SetEmpty(38.25); err != nil {
		t.Fatalf("SetEmpty: %v", err)
	}
	if err := s.SetFull(9.5); err != nil {
		t.Fatalf("SetFull: %v", err)
	}

	// A fresh store reading the same file sees equal values.
	s2 := NewStore(path)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cal := s2.Calibration()
	if !cal.Complete() {
		t.Fatal("expected complete calibration after round-trip")
	}
	if *cal.EmptyDistance != 38.25 {
		t.Errorf("empty: got %v, want 38.25", *cal.EmptyDistance)
	}
	if *cal.FullDistance != 9.5 {
		t.Errorf("full: got %v, want 9.5", *cal.FullDistance)
	}
	if !cal.Ordered() {
		t.Error("expected ordered calibration")
	}
}

func TestPartialCalibrationPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chute_calibration.json")

	s := NewStore(path)
	if err := s.SetEmpty(40); err != nil {
		t.Fatalf("SetEmpty: %v", err)
	}

	s2 := NewStore(path)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cal := s2.Calibration()
	if cal.EmptyDistance == nil || *cal.EmptyDistance != 40 {
		t.Errorf("empty: got %v, want 40", cal.EmptyDistance)
	}
	if cal.FullDistance != nil {
		t.Errorf("full: got %v, want unset", *cal.FullDistance)
	}
}

func TestClearResetsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chute_calibration.json")

	s := NewStore(path)
	if err := s.SetEmpty(40); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFull(10); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	s2 := NewStore(path)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cal := s2.Calibration()
	if cal.EmptyDistance != nil || cal.FullDistance != nil {
		t.Error("expected unset default after clear")
	}
}

func TestCalibrationIsCopied(t *testing.T) {
	s := tempStore(t)
	if err := s.SetEmpty(40); err != nil {
		t.Fatal(err)
	}

	cal := s.Calibration()
	*cal.EmptyDistance = 99 // mutate the copy

	if got := *s.Calibration().EmptyDistance; got != 40 {
		t.Errorf("store mutated through returned copy: got %v, want 40", got)
	}
}
