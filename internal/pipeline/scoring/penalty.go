// internal/pipeline/scoring/penalty.go
package scoring

import "math"

// ApplyPenalty discounts a raw score when follow-up prompting was
// needed to complete the answer. Without a follow-up the raw score
// passes through untouched.
func ApplyPenalty(raw float64, hasFollowUp bool, penaltyPercent float64) float64 {
	if !hasFollowUp {
		return raw
	}
	adjusted := raw * (1 - penaltyPercent/100)
	return clamp(adjusted, 0, 10)
}

// Round1 rounds a score to one decimal for display. Aggregation always
// works on the unrounded value.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
