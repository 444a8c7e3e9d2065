package review

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/richlegrande-dot/Chess-sub014/internal/config"
	"github.com/richlegrande-dot/Chess-sub014/internal/engine"
	"github.com/richlegrande-dot/Chess-sub014/internal/sample"
)

// Event is review progress telemetry for the operator feed.
type Event struct {
	Event     string
	ReviewID  string
	Tier      string
	Reason    string
	Ply       int
	LatencyMs int64
}

type Publisher func(Event)

type PositionReport struct {
	Candidate sample.Candidate `json:"candidate"`
	Analysis  engine.Analysis  `json:"analysis"`
	Err       string           `json:"error,omitempty"`
}

type Report struct {
	ID         string           `json:"id"`
	TotalMoves int              `json:"total_moves"`
	ForecastMs int64            `json:"forecast_ms"`
	Selection  SelectionResult  `json:"selection"`
	ColdStart  bool             `json:"cold_start"`
	Limit      int              `json:"limit"`
	Diagnostic string           `json:"diagnostic,omitempty"`
	Positions  []PositionReport `json:"positions"`
	ElapsedMs  int64            `json:"elapsed_ms"`
}

// Pipeline runs a whole-game review inside the caller's remaining
// budget: pick a tier, turn it into a position count, sample the
// positions worth the expense, fan the engine calls out, and reassemble
// results in ply order.
type Pipeline struct {
	cfg      config.Config
	engine   engine.Engine
	history  *engine.History
	selector *Selector
	publish  Publisher
}

func NewPipeline(cfg config.Config, eng engine.Engine, history *engine.History, publish Publisher) (*Pipeline, error) {
	selector, err := NewSelector(cfg)
	if err != nil {
		return nil, err
	}
	if publish == nil {
		publish = func(Event) {}
	}
	return &Pipeline{cfg: cfg, engine: eng, history: history, selector: selector, publish: publish}, nil
}

func (p *Pipeline) Selector() *Selector {
	return p.selector
}

func (p *Pipeline) Review(ctx context.Context, pgn string, priority Priority, remainingBudgetMs int64) Report {
	start := time.Now()
	if remainingBudgetMs <= 0 {
		remainingBudgetMs = p.cfg.DefaultRequestBudget
	}

	plies := sample.PlyCount(pgn)
	totalMoves := (plies + 1) / 2

	snapshot := p.history.Snapshot()
	forecast := Estimate(snapshot)

	input := SelectionInput{
		TotalMoves:        totalMoves,
		LatencyForecastMs: forecast,
		HasForecast:       len(snapshot) > 0,
		RemainingBudgetMs: remainingBudgetMs,
		Priority:          priority,
		SmartSampling:     p.cfg.SmartSamplingEnabled,
	}
	selection := p.selector.Select(input)

	coldStart := p.engine != nil && !p.engine.Warm()
	tier := p.selector.Tiers().DowngradeForColdStart(selection.Tier, coldStart)
	selection.Tier = tier

	limit := LimitWithBuffer(tier, remainingBudgetMs, forecast, p.cfg.SafetyBufferFraction)

	report := Report{
		ID:         uuid.NewString(),
		TotalMoves: totalMoves,
		ForecastMs: forecast,
		Selection:  selection,
		ColdStart:  coldStart,
		Limit:      limit,
		Positions:  []PositionReport{},
	}

	log.Printf("[review] start id=%s moves=%d tier=%s reason=%s cold=%t limit=%d budget_ms=%d forecast_ms=%d",
		report.ID, totalMoves, tier.Name, selection.Reason, coldStart, limit, remainingBudgetMs, forecast)
	p.publish(Event{Event: "review_started", ReviewID: report.ID, Tier: tier.Name, Reason: selection.Reason})

	sel := sample.Select(pgn, limit, p.cfg.SmartSamplingEnabled, sample.Config{
		IncludeOpening:        p.cfg.IncludeOpening,
		IncludeTactical:       p.cfg.IncludeTactical,
		IncludeMaterialSwings: p.cfg.IncludeMaterialSwings,
		IncludeCheckMate:      p.cfg.IncludeCheckMate,
	})
	if sel.Diagnostic != "" {
		report.Diagnostic = sel.Diagnostic
		report.ElapsedMs = time.Since(start).Milliseconds()
		log.Printf("[review] degraded id=%s diagnostic=%s", report.ID, sel.Diagnostic)
		p.publish(Event{Event: "review_degraded", ReviewID: report.ID, Reason: sel.Diagnostic})
		return report
	}

	report.Positions = p.analyzeCandidates(ctx, report.ID, tier, sel.Candidates, remainingBudgetMs)
	report.ElapsedMs = time.Since(start).Milliseconds()
	log.Printf("[review] done id=%s positions=%d elapsed_ms=%d", report.ID, len(report.Positions), report.ElapsedMs)
	p.publish(Event{Event: "review_finished", ReviewID: report.ID, Tier: tier.Name})
	return report
}

func (p *Pipeline) analyzeCandidates(ctx context.Context, reviewID string, tier Tier, candidates []sample.Candidate, budgetMs int64) []PositionReport {
	if len(candidates) == 0 {
		return []PositionReport{}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(budgetMs)*time.Millisecond)
	defer cancel()

	perCallMs := tier.EstimatedTimeMs / int64(tier.MaxPositions)
	if perCallMs < 100 {
		perCallMs = 100
	}

	workers := p.cfg.ReviewWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	results := make([]PositionReport, len(candidates))
	var group errgroup.Group
	group.SetLimit(workers)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		group.Go(func() error {
			callCtx, callCancel := context.WithTimeout(ctx, time.Duration(perCallMs)*time.Millisecond)
			defer callCancel()

			callStart := time.Now()
			analysis, err := p.engine.Analyze(callCtx, candidate.FEN, tier.Depth, perCallMs)
			latency := time.Since(callStart).Milliseconds()
			p.history.Observe(latency)

			results[i] = PositionReport{Candidate: candidate, Analysis: analysis}
			if err != nil {
				// Degrade to fewer positions rather than failing the
				// whole review.
				results[i].Err = err.Error()
				log.Printf("[review] position failed id=%s ply=%d err=%v", reviewID, candidate.Ply, err)
			}
			p.publish(Event{Event: "position_analyzed", ReviewID: reviewID, Ply: candidate.Ply, LatencyMs: latency})
			return nil
		})
	}
	_ = group.Wait()

	// Report order follows original ply order, not completion order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Candidate.Ply < results[j].Candidate.Ply
	})
	return results
}
