package cpumove

import "sync"

// MoveTelemetry is one record per live move. FallbackSticky must always
// read false after the move completes; it exists as an assertion point,
// not a legitimate state.
type MoveTelemetry struct {
	EngineAttempted bool         `json:"engine_attempted"`
	EngineSucceeded bool         `json:"engine_succeeded"`
	FailureClass    FailureClass `json:"failure_class,omitempty"`
	FallbackUsed    bool         `json:"fallback_used"`
	FallbackSticky  bool         `json:"fallback_sticky"`
	LatencyMs       int64        `json:"latency_ms"`
}

// StatsSnapshot is the rolling aggregate over recent moves.
type StatsSnapshot struct {
	Moves                int             `json:"moves"`
	EngineAttempts       int             `json:"engine_attempts"`
	EngineSuccesses      int             `json:"engine_successes"`
	FallbacksUsed        int             `json:"fallbacks_used"`
	ConsecutiveFallbacks int             `json:"consecutive_fallbacks"`
	Recent               []MoveTelemetry `json:"recent"`
}

// Stats keeps a bounded window of move telemetry plus running
// aggregates. Single writer per session; updates are atomic under the
// lock so readers never see a partial fold.
type Stats struct {
	mu                   sync.Mutex
	window               int
	recent               []MoveTelemetry
	engineAttempts       int
	engineSuccesses      int
	fallbacksUsed        int
	consecutiveFallbacks int
}

func NewStats(window int) *Stats {
	if window <= 0 {
		window = 32
	}
	return &Stats{window: window}
}

// Fold records one move and returns the consecutive-fallback count
// after the update, for the governor's invariant check.
func (s *Stats) Fold(rec MoveTelemetry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, rec)
	if len(s.recent) > s.window {
		s.recent = s.recent[len(s.recent)-s.window:]
	}
	if rec.EngineAttempted {
		s.engineAttempts++
	}
	if rec.EngineSucceeded {
		s.engineSuccesses++
		s.consecutiveFallbacks = 0
	}
	if rec.FallbackUsed {
		s.fallbacksUsed++
		s.consecutiveFallbacks++
	}
	return s.consecutiveFallbacks
}

func (s *Stats) ConsecutiveFallbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFallbacks
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := make([]MoveTelemetry, len(s.recent))
	copy(recent, s.recent)
	return StatsSnapshot{
		Moves:                len(recent),
		EngineAttempts:       s.engineAttempts,
		EngineSuccesses:      s.engineSuccesses,
		FallbacksUsed:        s.fallbacksUsed,
		ConsecutiveFallbacks: s.consecutiveFallbacks,
		Recent:               recent,
	}
}
