package ledger

import "github.com/shopspring/decimal"

// CycleStats are derived values for a recurring obligation. They are
// computed from the remaining amount and the settlement history, never
// stored redundantly.
type CycleStats struct {
	// CyclesElapsed is the count of settlement entries so far
	CyclesElapsed int `json:"cycles_elapsed"`

	// ProjectedCyclesRemaining is ceil(remaining / expected_per_cycle)
	ProjectedCyclesRemaining int `json:"projected_cycles_remaining"`
}

// Cycles computes the derived cycle values for a recurring obligation.
func Cycles(remaining, expectedPerCycle decimal.Decimal, settlements int) CycleStats {
	stats := CycleStats{CyclesElapsed: settlements}
	if expectedPerCycle.IsPositive() {
		stats.ProjectedCyclesRemaining = int(remaining.Div(expectedPerCycle).Ceil().IntPart())
	}
	return stats
}

// CycleVariance compares one settlement against the expected per-cycle rate.
// Positive means the payment exceeded the rate, negative means a shortfall,
// zero means the cycle is on schedule. The variance is recorded on the
// settlement entry; it never alters the expected rate going forward.
func CycleVariance(paid, expectedPerCycle decimal.Decimal) decimal.Decimal {
	return paid.Sub(expectedPerCycle)
}
