package engine

import "sync"

// History is a bounded window of recent engine-call latencies. One
// writer per session; readers get copies so the estimator stays pure.
type History struct {
	mu     sync.Mutex
	window int
	values []int64
}

func NewHistory(window int) *History {
	if window <= 0 {
		window = 50
	}
	return &History{window: window}
}

// Observe records one call duration. Cancelled calls are recorded too;
// an unmeasured call is worse than a slow one.
func (h *History) Observe(latencyMs int64) {
	if latencyMs < 0 {
		latencyMs = 0
	}
	h.mu.Lock()
	h.values = append(h.values, latencyMs)
	if len(h.values) > h.window {
		h.values = h.values[len(h.values)-h.window:]
	}
	h.mu.Unlock()
}

func (h *History) Snapshot() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.values))
	copy(out, h.values)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}
