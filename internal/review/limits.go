package review

import "math"

const DefaultSafetyBuffer = 0.8

// Limit converts a chosen tier and the real remaining budget into a
// concrete position count, applying the default 20% safety buffer.
func Limit(tier Tier, remainingBudgetMs, avgTimePerPositionMs int64) int {
	return LimitWithBuffer(tier, remainingBudgetMs, avgTimePerPositionMs, DefaultSafetyBuffer)
}

// LimitWithBuffer clamps to [1, tier.MaxPositions]: never below one
// (there is always at least a minimal analysis), never above the tier
// ceiling regardless of surplus budget.
func LimitWithBuffer(tier Tier, remainingBudgetMs, avgTimePerPositionMs int64, buffer float64) int {
	if buffer <= 0 || buffer > 1 {
		buffer = DefaultSafetyBuffer
	}
	raw := tier.MaxPositions
	if avgTimePerPositionMs > 0 {
		usable := float64(remainingBudgetMs) * buffer
		raw = int(math.Floor(usable / float64(avgTimePerPositionMs)))
	}
	if raw < 1 {
		raw = 1
	}
	if raw > tier.MaxPositions {
		raw = tier.MaxPositions
	}
	return raw
}
