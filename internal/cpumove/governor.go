package cpumove

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/richlegrande-dot/Chess-sub014/internal/engine"
)

// GovernanceError reports a broken anti-flapping invariant: the cheap
// fallback mover was about to serve two consecutive engine-attempted
// moves. This is a correctness bug in governance, not a runtime
// condition to route around.
type GovernanceError struct {
	Consecutive int
}

func (e *GovernanceError) Error() string {
	return fmt.Sprintf("cpumove: sticky fallback governance violation, %d consecutive fallback moves", e.Consecutive)
}

// Mover is the cheap local move generator used only under governor
// authorization.
type Mover interface {
	ChooseMove(fen string) (string, error)
}

// MoveResult is the governed outcome for one live move.
type MoveResult struct {
	Move      string        `json:"move"`
	Eval      int           `json:"eval"`
	Source    string        `json:"source"` // "engine" or "fallback"
	Telemetry MoveTelemetry `json:"telemetry"`
}

// Governor wraps every external engine call for live play. On a
// classified transient failure it may authorize the fallback mover, but
// never on two consecutive moves while the engine is being attempted:
// the external path is always retried on the very next move.
type Governor struct {
	mu       sync.Mutex
	engine   engine.Engine
	fallback Mover
	history  *engine.History
	stats    *Stats
}

func NewGovernor(eng engine.Engine, fallback Mover, history *engine.History, stats *Stats) *Governor {
	if stats == nil {
		stats = NewStats(0)
	}
	return &Governor{engine: eng, fallback: fallback, history: history, stats: stats}
}

func (g *Governor) Stats() *Stats {
	return g.stats
}

// PlayMove resolves one live move: engine-sourced, fallback (at most
// once in a row), or an explicit failure. Never a silently wrong move.
func (g *Governor) PlayMove(ctx context.Context, fen string, depth int, budgetMs int64) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	analysis, err := g.engine.Analyze(ctx, fen, depth, budgetMs)
	latency := time.Since(start).Milliseconds()
	if g.history != nil {
		g.history.Observe(latency)
	}

	rec := MoveTelemetry{EngineAttempted: true, LatencyMs: latency}

	if err == nil {
		rec.EngineSucceeded = true
		g.stats.Fold(rec)
		return MoveResult{
			Move:      analysis.BestMove,
			Eval:      analysis.Eval,
			Source:    "engine",
			Telemetry: rec,
		}, nil
	}

	class := Classify(err)
	rec.FailureClass = class
	if !class.FallbackEligible() {
		g.stats.Fold(rec)
		return MoveResult{Telemetry: rec}, fmt.Errorf("cpumove: unclassified engine failure: %w", err)
	}

	move, fallbackErr := g.fallback.ChooseMove(fen)
	if fallbackErr != nil {
		g.stats.Fold(rec)
		return MoveResult{Telemetry: rec}, fmt.Errorf("cpumove: engine failed (%s) and fallback failed: %w", class, fallbackErr)
	}

	rec.FallbackUsed = true
	consecutive := g.stats.Fold(rec)
	if consecutive > 1 {
		return MoveResult{Telemetry: rec}, &GovernanceError{Consecutive: consecutive}
	}

	log.Printf("[cpumove] fallback move used class=%s latency_ms=%d", class, latency)
	return MoveResult{
		Move:      move,
		Source:    "fallback",
		Telemetry: rec,
	}, nil
}
