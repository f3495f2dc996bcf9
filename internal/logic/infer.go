package logic

// Infer maps one distance reading onto a chute status.
//
// Direct threshold crossings take precedence over the ratio path: a
// reading at or inside the full bound is a full candidate regardless of
// the ratio threshold, and a reading at or beyond the empty bound is
// Empty on the first tick. Only fullness is debounced — a false "full"
// raises an alert, a false "empty" merely under-reports, so emptiness
// reacts immediately while fullness needs FullConfirmationCount
// consecutive candidate readings.
func Infer(distance float64, cal Calibration, cfg Config, prevConsecutiveFull int) Result {
	if !cal.Complete() {
		return Result{Status: StatusUnknown}
	}
	if cal.Degenerate() {
		return Result{Status: StatusUnknown, InvalidCalibration: true}
	}

	empty := *cal.EmptyDistance
	full := *cal.FullDistance
	ratio := fillRatio(distance, empty, full)

	if distance <= full {
		return confirmFull(ratio, cfg, prevConsecutiveFull)
	}
	if distance >= empty {
		return Result{Status: StatusEmpty, Confidence: 1 - ratio}
	}
	if ratio >= cfg.FullRatioThreshold {
		return confirmFull(ratio, cfg, prevConsecutiveFull)
	}
	return Result{Status: StatusEmpty, Confidence: 1 - ratio}
}

// confirmFull applies the confirmation-count debounce to a
// full-candidate reading. Until the count is reached the chute is still
// reported Empty, the safe default.
func confirmFull(ratio float64, cfg Config, prev int) Result {
	n := prev + 1
	if n >= cfg.FullConfirmationCount {
		return Result{Status: StatusFull, Confidence: ratio, ConsecutiveFull: n}
	}
	return Result{Status: StatusEmpty, Confidence: 1 - ratio, ConsecutiveFull: n}
}

// fillRatio is the normalized position of a reading between the empty
// and full bounds, clamped to [0,1].
func fillRatio(distance, empty, full float64) float64 {
	r := (empty - distance) / (empty - full)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
