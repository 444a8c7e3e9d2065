package review

import "testing"

func TestEstimateEmptyHistoryUsesDefault(t *testing.T) {
	got := Estimate(nil)
	if got != 200 {
		t.Fatalf("expected default estimate 200, got %d", got)
	}
}

func TestEstimateSingleMeasurementIsTheEstimate(t *testing.T) {
	got := Estimate([]int64{300})
	if got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
}

func TestEstimateReturnsP90NotMean(t *testing.T) {
	// n=10: index floor(0.9*9)=8, which lands on the 900 tail while the
	// mean sits at 260.
	history := []int64{100, 100, 100, 100, 100, 100, 100, 100, 900, 900}
	got := Estimate(history)
	if got != 900 {
		t.Fatalf("expected tail value 900, got %d", got)
	}
}

func TestEstimateOrderIndependent(t *testing.T) {
	unsorted := []int64{500, 120, 340, 90, 410, 230}
	sorted := []int64{90, 120, 230, 340, 410, 500}
	if Estimate(unsorted) != Estimate(sorted) {
		t.Fatalf("expected identical estimates for sorted and unsorted history")
	}
}

func TestEstimateDoesNotMutateHistory(t *testing.T) {
	history := []int64{300, 100, 200}
	Estimate(history)
	if history[0] != 300 || history[1] != 100 || history[2] != 200 {
		t.Fatalf("expected history untouched, got %v", history)
	}
}

func TestEstimateUsesFloorIndex(t *testing.T) {
	// n=10: index floor(0.9*9)=8, the ninth smallest.
	history := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := Estimate(history)
	if got != 9 {
		t.Fatalf("expected 9 at p90 index 8, got %d", got)
	}
}
