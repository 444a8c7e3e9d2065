package review

import (
	"fmt"

	"github.com/richlegrande-dot/Chess-sub014/internal/config"
)

// Tier is an immutable analysis profile. The three tiers are built once
// from config and shared read-only for the life of the process.
type Tier struct {
	Name            string `json:"name"`
	Depth           int    `json:"depth"`
	MaxPositions    int    `json:"max_positions"`
	EstimatedTimeMs int64  `json:"estimated_time_ms"`
}

type TierSet struct {
	A Tier
	B Tier
	C Tier
}

func NewTierSet(cfg config.Config) (TierSet, error) {
	set := TierSet{
		A: tierFromParams("A", cfg.TierA),
		B: tierFromParams("B", cfg.TierB),
		C: tierFromParams("C", cfg.TierC),
	}
	if err := set.validate(); err != nil {
		return TierSet{}, err
	}
	return set, nil
}

func tierFromParams(name string, params config.TierParams) Tier {
	return Tier{
		Name:            name,
		Depth:           params.Depth,
		MaxPositions:    params.MaxPositions,
		EstimatedTimeMs: params.EstimatedTimeMs,
	}
}

func (s TierSet) validate() error {
	if !(s.A.Depth < s.B.Depth && s.B.Depth < s.C.Depth) {
		return fmt.Errorf("tier depths must strictly increase A<B<C, got %d/%d/%d", s.A.Depth, s.B.Depth, s.C.Depth)
	}
	if !(s.A.MaxPositions < s.B.MaxPositions && s.B.MaxPositions < s.C.MaxPositions) {
		return fmt.Errorf("tier max positions must strictly increase A<B<C, got %d/%d/%d", s.A.MaxPositions, s.B.MaxPositions, s.C.MaxPositions)
	}
	if !(s.A.EstimatedTimeMs < s.B.EstimatedTimeMs && s.B.EstimatedTimeMs < s.C.EstimatedTimeMs) {
		return fmt.Errorf("tier estimated times must strictly increase A<B<C, got %d/%d/%d", s.A.EstimatedTimeMs, s.B.EstimatedTimeMs, s.C.EstimatedTimeMs)
	}
	return nil
}

// DowngradeForColdStart steps exactly one tier down while the engine
// process is still warming up. It never upgrades and never skips a step.
func (s TierSet) DowngradeForColdStart(tier Tier, isColdStart bool) Tier {
	if !isColdStart {
		return tier
	}
	switch tier.Name {
	case s.C.Name:
		return s.B
	case s.B.Name:
		return s.A
	default:
		return s.A
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func ParsePriority(raw string) Priority {
	switch raw {
	case string(PriorityLow):
		return PriorityLow
	case string(PriorityHigh):
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

type SelectionInput struct {
	TotalMoves        int
	LatencyForecastMs int64
	HasForecast       bool
	RemainingBudgetMs int64
	Priority          Priority
	SmartSampling     bool
}

type SelectionResult struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

const (
	ReasonLowTimeBudget        = "low-time-budget"
	ReasonLatencyHigh          = "stockfish-latency-high"
	ReasonHighPriorityOptimal  = "high-priority-optimal-conditions"
	ReasonShortGameDeep        = "short-game-deep-analysis"
	ReasonBalancedSmart        = "balanced-smart-sampling"
	ReasonDefaultBalanced      = "default-balanced"
	ReasonInsufficientHeadroom = "insufficient-headroom"
)

type selectionRule struct {
	reason  string
	matches func(in SelectionInput, forecast int64) bool
	tier    func() Tier
}

// Selector evaluates an ordered rule list, first match wins. Earlier
// rules are safety rules, later ones optimizations; any ambiguity
// between adjacent tiers resolves downward.
type Selector struct {
	cfg   config.Config
	tiers TierSet
	rules []selectionRule
}

func NewSelector(cfg config.Config) (*Selector, error) {
	tiers, err := NewTierSet(cfg)
	if err != nil {
		return nil, err
	}
	s := &Selector{cfg: cfg, tiers: tiers}
	comfortableLatency := cfg.HighLatencyThresholdMs / 2
	headroom := cfg.HeadroomFactor
	if headroom < 1 {
		headroom = 1
	}
	s.rules = []selectionRule{
		{
			reason: ReasonLowTimeBudget,
			matches: func(in SelectionInput, _ int64) bool {
				return in.RemainingBudgetMs <= cfg.LowBudgetThresholdMs
			},
			tier: func() Tier { return tiers.A },
		},
		{
			reason: ReasonLatencyHigh,
			matches: func(_ SelectionInput, forecast int64) bool {
				return forecast >= cfg.HighLatencyThresholdMs
			},
			tier: func() Tier { return tiers.A },
		},
		{
			reason: ReasonHighPriorityOptimal,
			matches: func(in SelectionInput, forecast int64) bool {
				return in.Priority == PriorityHigh &&
					forecast <= comfortableLatency &&
					float64(in.RemainingBudgetMs) >= float64(tiers.C.EstimatedTimeMs)*headroom
			},
			tier: func() Tier { return tiers.C },
		},
		{
			reason: ReasonShortGameDeep,
			matches: func(in SelectionInput, forecast int64) bool {
				return in.TotalMoves > 0 && in.TotalMoves <= cfg.ShortGameMoves &&
					forecast <= comfortableLatency &&
					in.RemainingBudgetMs >= tiers.C.EstimatedTimeMs
			},
			tier: func() Tier { return tiers.C },
		},
		{
			reason: ReasonBalancedSmart,
			matches: func(in SelectionInput, _ int64) bool {
				return in.SmartSampling && in.RemainingBudgetMs >= tiers.B.EstimatedTimeMs
			},
			tier: func() Tier { return tiers.B },
		},
		{
			reason: ReasonDefaultBalanced,
			matches: func(in SelectionInput, _ int64) bool {
				return in.RemainingBudgetMs >= tiers.B.EstimatedTimeMs
			},
			tier: func() Tier { return tiers.B },
		},
	}
	return s, nil
}

func (s *Selector) Tiers() TierSet {
	return s.tiers
}

func (s *Selector) Select(in SelectionInput) SelectionResult {
	forecast := in.LatencyForecastMs
	if !in.HasForecast {
		forecast = s.cfg.DefaultForecastMs
	}
	for _, rule := range s.rules {
		if rule.matches(in, forecast) {
			return SelectionResult{Tier: rule.tier(), Reason: rule.reason}
		}
	}
	return SelectionResult{Tier: s.tiers.A, Reason: ReasonInsufficientHeadroom}
}
