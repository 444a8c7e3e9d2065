package engine

import (
	"context"
	"fmt"
	"net/http"
)

// Analysis is the result of one external engine call.
type Analysis struct {
	BestMove string `json:"best_move"`
	Eval     int    `json:"eval"` // centipawns
	Depth    int    `json:"depth"`
	Nodes    int64  `json:"nodes"`
	PV       string `json:"pv"`
	TimeMs   int64  `json:"time_ms"`
}

// Engine is the external analysis capability. Implementations must
// honor ctx cancellation so control returns promptly to the caller.
type Engine interface {
	Analyze(ctx context.Context, fen string, depth int, budgetMs int64) (Analysis, error)
	Warm() bool
}

// StatusError reports a non-2xx response from a remote engine service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Code)
	if text == "" {
		text = "unknown status"
	}
	if e.Body == "" {
		return fmt.Sprintf("engine: status %d %s", e.Code, text)
	}
	return fmt.Sprintf("engine: status %d %s: %s", e.Code, text, e.Body)
}
