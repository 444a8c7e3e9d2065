package review

import "sort"

// DefaultEstimateMs is assumed for an engine with no recorded calls.
const DefaultEstimateMs = 200

// Estimate returns a conservative latency forecast in ms: the 90th
// percentile of the supplied history. Tail latency, not the mean,
// decides whether a budget-constrained call blows its deadline.
func Estimate(history []int64) int64 {
	if len(history) == 0 {
		return DefaultEstimateMs
	}
	sorted := make([]int64, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (9 * (len(sorted) - 1)) / 10
	return sorted[idx]
}
