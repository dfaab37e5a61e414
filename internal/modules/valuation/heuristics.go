package valuation

import (
	"math"
	"sort"

	"github.com/aristath/folio/pkg/formulas"
)

// Heuristics over a single quote. The thresholds in this file are exact
// contractual boundaries, not tunable defaults.

// FairValue averages up to five candidate estimates, each requiring
// specific inputs:
//
//  1. midpoint of high/low
//  2. weighted blend 0.5·current + 0.3·open + 0.2·midpoint
//  3. mean-reversion blend 0.4·current + 0.6·midpoint
//  4. the average cost itself, when positive
//  5. midpoint of the widened support/resistance band (low·0.95, high·1.05),
//     only considered alongside a live current price
//
// Returns nil when no candidate is computable. The reported range is ±10%
// around the averaged value.
func FairValue(in Inputs) *FairValueEstimate {
	var candidates []float64

	if in.High != nil && in.Low != nil {
		candidates = append(candidates, midpoint(*in.High, *in.Low))
	}

	if in.Current != nil && in.Open != nil && in.High != nil && in.Low != nil {
		candidates = append(candidates, 0.5**in.Current+0.3**in.Open+0.2*midpoint(*in.High, *in.Low))
	}

	if in.Current != nil && in.High != nil && in.Low != nil {
		candidates = append(candidates, meanReversion(*in.Current, *in.High, *in.Low))
	}

	if in.AvgCost != nil && *in.AvgCost > 0 {
		candidates = append(candidates, *in.AvgCost)
	}

	if in.Current != nil && in.High != nil && in.Low != nil {
		candidates = append(candidates, midpoint(*in.Low*0.95, *in.High*1.05))
	}

	if len(candidates) == 0 {
		return nil
	}

	value := formulas.Mean(candidates)
	return &FairValueEstimate{
		Value:      value,
		RangeLow:   value * 0.9,
		RangeHigh:  value * 1.1,
		Candidates: len(candidates),
	}
}

// BuyZones generates candidate entry levels around the current price,
// sorted ascending and deduplicated on two-decimal rounding (at an exact
// price tie the stronger zone survives).
func BuyZones(current float64, in Inputs) []BuyZone {
	if current <= 0 {
		return nil
	}

	var zones []BuyZone

	// 5% below the session low: strong support
	if in.Low != nil {
		if z := *in.Low * 0.95; z < current {
			zones = append(zones, BuyZone{Price: z, Strength: ZoneStrong, Source: "support_below_low"})
		}
	}

	// The cost basis itself, as long as it is not more than 10% above
	// the current price
	if in.AvgCost != nil && *in.AvgCost > 0 && *in.AvgCost <= current*1.10 {
		zones = append(zones, BuyZone{Price: *in.AvgCost, Strength: ZoneModerate, Source: "avg_cost"})
	}

	// Mean-reversion target sitting clearly below the current price
	if in.High != nil && in.Low != nil {
		if z := meanReversion(current, *in.High, *in.Low); z < current*0.95 {
			zones = append(zones, BuyZone{Price: z, Strength: ZoneModerate, Source: "mean_reversion"})
		}
	}

	// 2% below the previous close
	if in.PrevClose != nil {
		if z := *in.PrevClose * 0.98; z < current {
			zones = append(zones, BuyZone{Price: z, Strength: ZoneWeak, Source: "below_prev_close"})
		}
	}

	// Fibonacci retracements of the session range, only when they land
	// strictly between the low and the current price
	if in.High != nil && in.Low != nil {
		spread := *in.High - *in.Low
		if z := *in.High - 0.382*spread; z > *in.Low && z < current {
			zones = append(zones, BuyZone{Price: z, Strength: ZoneStrong, Source: "fib_382"})
		}
		if z := *in.High - 0.618*spread; z > *in.Low && z < current {
			zones = append(zones, BuyZone{Price: z, Strength: ZoneModerate, Source: "fib_618"})
		}
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Price != zones[j].Price {
			return zones[i].Price < zones[j].Price
		}
		return strengthRank(zones[i].Strength) < strengthRank(zones[j].Strength)
	})

	deduped := zones[:0]
	var lastKey float64
	for i, z := range zones {
		key := round2(z.Price)
		if i > 0 && key == lastKey {
			continue
		}
		deduped = append(deduped, z)
		lastKey = key
	}

	return deduped
}

// Recommend maps the current price against the fair value and zones to a
// discrete signal. Boundary behavior: ratio 0.85 → BUY, 0.95 → HOLD,
// 1.05 → HOLD, 1.15 → SELL.
func Recommend(current float64, fv *FairValueEstimate, zones []BuyZone) Recommendation {
	if fv == nil || fv.Value <= 0 || current <= 0 {
		return Hold
	}

	ratio := current / fv.Value

	switch {
	case ratio < 0.85:
		if nearStrongZone(current, zones) {
			return StrongBuy
		}
		return Buy
	case ratio < 0.95:
		return Buy
	case ratio <= 1.05:
		return Hold
	case ratio > 1.15:
		return StrongSell
	default:
		return Sell
	}
}

// nearStrongZone reports whether any STRONG zone lies within 5% of the
// current price
func nearStrongZone(current float64, zones []BuyZone) bool {
	for _, z := range zones {
		if z.Strength == ZoneStrong && math.Abs(current-z.Price) <= current*0.05 {
			return true
		}
	}
	return false
}

func midpoint(a, b float64) float64 {
	return (a + b) / 2
}

func meanReversion(current, high, low float64) float64 {
	return 0.4*current + 0.6*midpoint(high, low)
}

func strengthRank(s ZoneStrength) int {
	switch s {
	case ZoneStrong:
		return 0
	case ZoneModerate:
		return 1
	default:
		return 2
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
