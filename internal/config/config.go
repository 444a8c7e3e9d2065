package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type TierParams struct {
	Depth           int   `json:"depth" yaml:"depth"`
	MaxPositions    int   `json:"max_positions" yaml:"max_positions"`
	EstimatedTimeMs int64 `json:"estimated_time_ms" yaml:"estimated_time_ms"`
}

type Config struct {
	ServerAddr string `json:"server_addr" yaml:"server_addr"`

	// External engine. Exactly one of path/url is expected; path wins.
	EnginePath string `json:"engine_path" yaml:"engine_path"`
	EngineURL  string `json:"engine_url" yaml:"engine_url"`

	// Tier selection thresholds.
	LowBudgetThresholdMs   int64   `json:"low_budget_threshold_ms" yaml:"low_budget_threshold_ms"`
	HighLatencyThresholdMs int64   `json:"high_latency_threshold_ms" yaml:"high_latency_threshold_ms"`
	DefaultForecastMs      int64   `json:"default_forecast_ms" yaml:"default_forecast_ms"`
	ShortGameMoves         int     `json:"short_game_moves" yaml:"short_game_moves"`
	HeadroomFactor         float64 `json:"headroom_factor" yaml:"headroom_factor"`
	SafetyBufferFraction   float64 `json:"safety_buffer_fraction" yaml:"safety_buffer_fraction"`

	TierA TierParams `json:"tier_a" yaml:"tier_a"`
	TierB TierParams `json:"tier_b" yaml:"tier_b"`
	TierC TierParams `json:"tier_c" yaml:"tier_c"`

	// Position sampling.
	SmartSamplingEnabled  bool `json:"smart_sampling_enabled" yaml:"smart_sampling_enabled"`
	IncludeOpening        bool `json:"include_opening" yaml:"include_opening"`
	IncludeTactical       bool `json:"include_tactical" yaml:"include_tactical"`
	IncludeMaterialSwings bool `json:"include_material_swings" yaml:"include_material_swings"`
	IncludeCheckMate      bool `json:"include_checkmate" yaml:"include_checkmate"`

	// Telemetry windows and review concurrency.
	LatencyWindow        int   `json:"latency_window" yaml:"latency_window"`
	MoveStatsWindow      int   `json:"move_stats_window" yaml:"move_stats_window"`
	ReviewWorkers        int   `json:"review_workers" yaml:"review_workers"`
	DefaultRequestBudget int64 `json:"default_request_budget_ms" yaml:"default_request_budget_ms"`
}

func DefaultConfig() Config {
	return Config{
		ServerAddr: ":8080",

		LowBudgetThresholdMs:   2000,
		HighLatencyThresholdMs: 350,
		DefaultForecastMs:      200,
		ShortGameMoves:         30,
		HeadroomFactor:         1.5,
		SafetyBufferFraction:   0.8,

		TierA: TierParams{Depth: 12, MaxPositions: 8, EstimatedTimeMs: 4000},
		TierB: TierParams{Depth: 16, MaxPositions: 16, EstimatedTimeMs: 9000},
		TierC: TierParams{Depth: 20, MaxPositions: 30, EstimatedTimeMs: 20000},

		SmartSamplingEnabled:  true,
		IncludeOpening:        true,
		IncludeTactical:       true,
		IncludeMaterialSwings: true,
		IncludeCheckMate:      true,

		LatencyWindow:        50,
		MoveStatsWindow:      32,
		ReviewWorkers:        4,
		DefaultRequestBudget: 10000,
	}
}

type Store struct {
	mu     sync.RWMutex
	config Config
}

func NewStore(config Config) *Store {
	return &Store{config: config}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Store) Update(newConfig Config) {
	s.mu.Lock()
	s.config = newConfig
	s.mu.Unlock()
}

// LoadFile overlays a YAML file on top of defaults. Unset keys keep
// their default values.
func LoadFile(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}
