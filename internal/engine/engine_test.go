package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestHistoryWindowEvictsOldest(t *testing.T) {
	history := NewHistory(3)
	for _, v := range []int64{10, 20, 30, 40} {
		history.Observe(v)
	}
	got := history.Snapshot()
	want := []int64{20, 30, 40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryClampsNegativeLatency(t *testing.T) {
	history := NewHistory(0)
	history.Observe(-5)
	got := history.Snapshot()
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected negative latency clamped to 0, got %v", got)
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	history := NewHistory(0)
	history.Observe(100)
	snap := history.Snapshot()
	snap[0] = 999
	if history.Snapshot()[0] != 100 {
		t.Fatalf("snapshot must not alias internal storage")
	}
}

func TestParseUCIOutput(t *testing.T) {
	lines := []string{
		"info depth 12 seldepth 18 score cp 35 nodes 48211 nps 820000 pv e2e4 e7e5 g1f3",
		"bestmove e2e4 ponder e7e5",
	}
	got := parseUCIOutput(lines, 8, 1000)
	want := Analysis{BestMove: "e2e4", Eval: 35, Depth: 12, Nodes: 48211, PV: "e2e4 e7e5 g1f3", TimeMs: 1000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUCIOutputNoBestmoveLine(t *testing.T) {
	got := parseUCIOutput([]string{"info depth 4 score cp -12"}, 8, 500)
	if got.BestMove != "" {
		t.Fatalf("expected empty best move, got %q", got.BestMove)
	}
	if got.Eval != -12 {
		t.Fatalf("expected eval -12, got %d", got.Eval)
	}
}

func TestUCIAnalyzeRealignsAfterInterruptedSearch(t *testing.T) {
	var sent bytes.Buffer
	e := &UCI{
		stdin:     bufio.NewWriter(&sent),
		lines:     make(chan string, 8),
		stopGrace: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Analyze(ctx, "somefen", 8, 500); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if !e.pending {
		t.Fatalf("expected interrupted search marked pending")
	}
	if !strings.Contains(sent.String(), "stop") {
		t.Fatalf("expected stop sent to the engine, got %q", sent.String())
	}

	// The stopped search answers late; the next call must discard that
	// bestmove and read its own.
	e.lines <- "bestmove stale"
	e.lines <- "info depth 8 score cp 15 pv d2d4 d7d5"
	e.lines <- "bestmove d2d4"
	analysis, err := e.Analyze(context.Background(), "somefen", 8, 500)
	if err != nil {
		t.Fatalf("expected recovery after realign, got %v", err)
	}
	if analysis.BestMove != "d2d4" {
		t.Fatalf("expected fresh bestmove d2d4, got %s", analysis.BestMove)
	}
	if e.pending {
		t.Fatalf("expected pending cleared after realign")
	}
}

func TestUCIAnalyzeFailsWhenStopNeverAnswered(t *testing.T) {
	e := &UCI{
		stdin:     bufio.NewWriter(&bytes.Buffer{}),
		lines:     make(chan string, 8),
		stopGrace: 50 * time.Millisecond,
		pending:   true,
	}
	if _, err := e.Analyze(context.Background(), "somefen", 8, 500); err == nil {
		t.Fatalf("expected error while the previous search is still unanswered")
	}
	if !e.pending {
		t.Fatalf("expected pending to stay set until the bestmove arrives")
	}
}

func TestRemoteAnalyzeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("expected /analyze path, got %s", r.URL.Path)
		}
		var job struct {
			FEN    string `json:"fen"`
			Depth  int    `json:"depth"`
			TimeMS int64  `json:"time_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			t.Errorf("bad job body: %v", err)
		}
		if job.Depth != 16 || job.TimeMS != 1500 {
			t.Errorf("unexpected job %+v", job)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"best_move": "d2d4", "eval": 22, "depth": 16, "pv": "d2d4 d7d5",
		})
	}))
	defer server.Close()

	remote := NewRemote(server.URL, nil)
	if remote.Warm() {
		t.Fatalf("remote must start cold")
	}
	analysis, err := remote.Analyze(context.Background(), "somefen", 16, 1500)
	if err != nil {
		t.Fatalf("expected analysis, got %v", err)
	}
	if analysis.BestMove != "d2d4" || analysis.Eval != 22 {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if !remote.Warm() {
		t.Fatalf("remote must be warm after a successful call")
	}
}

func TestRemoteAnalyzeNonOKReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "worker saturated", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	remote := NewRemote(server.URL, nil)
	_, err := remote.Analyze(context.Background(), "somefen", 12, 1000)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", statusErr.Code)
	}
}

func TestRemoteAnalyzeEmptyBestMove(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"eval": 0})
	}))
	defer server.Close()

	remote := NewRemote(server.URL, nil)
	_, err := remote.Analyze(context.Background(), "somefen", 12, 1000)
	if err == nil {
		t.Fatalf("expected invalid response error for empty best move")
	}
	if remote.Warm() {
		t.Fatalf("failed call must not warm the engine")
	}
}
