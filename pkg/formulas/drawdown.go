package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series, expressed as a negative fraction (e.g. -0.25 for a 25% drawdown).
// Returns 0 for series that never decline or are too short.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0

	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}
