package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// Remote calls an HTTP analysis service. The job/result shapes match
// the worker protocol of the distributed analysis service.
type Remote struct {
	baseURL string
	client  *http.Client
	warm    atomic.Bool
}

type remoteJob struct {
	FEN    string `json:"fen"`
	Depth  int    `json:"depth"`
	TimeMS int64  `json:"time_ms"`
}

type remoteResult struct {
	BestMove string `json:"best_move"`
	Eval     int    `json:"eval"`
	Depth    int    `json:"depth"`
	Nodes    int64  `json:"nodes"`
	PV       string `json:"pv"`
	Time     int64  `json:"time_ms"`
	Error    string `json:"error,omitempty"`
}

func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (r *Remote) Warm() bool {
	return r.warm.Load()
}

func (r *Remote) Analyze(ctx context.Context, fen string, depth int, budgetMs int64) (Analysis, error) {
	body, err := json.Marshal(remoteJob{FEN: fen, Depth: depth, TimeMS: budgetMs})
	if err != nil {
		return Analysis{}, fmt.Errorf("engine: marshal job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Analysis{}, fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("engine: call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Analysis{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var result remoteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Analysis{}, fmt.Errorf("engine: invalid response: %w", err)
	}
	if result.Error != "" {
		return Analysis{}, fmt.Errorf("engine: invalid response: %s", result.Error)
	}
	if result.BestMove == "" {
		return Analysis{}, fmt.Errorf("engine: invalid response: empty best move")
	}
	r.warm.Store(true)
	return Analysis{
		BestMove: result.BestMove,
		Eval:     result.Eval,
		Depth:    result.Depth,
		Nodes:    result.Nodes,
		PV:       result.PV,
		TimeMs:   result.Time,
	}, nil
}
