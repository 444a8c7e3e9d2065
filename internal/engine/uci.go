package engine

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultStopGrace = 2 * time.Second

// UCI drives a local UCI engine process over stdin/stdout. Calls are
// serialized; the process holds one search at a time. A single reader
// goroutine owns stdout for the life of the process and feeds lines
// through a channel, so an interrupted search never leaves a second
// reader racing the next one.
type UCI struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     *bufio.Writer
	lines     chan string
	warm      atomic.Bool
	stopGrace time.Duration
	pending   bool // a stopped search still owes its bestmove line
}

func NewUCI(enginePath string) (*UCI, error) {
	cmd := exec.Command(enginePath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("engine start: %w", err)
	}

	e := &UCI{
		cmd:       cmd,
		stdin:     bufio.NewWriter(stdin),
		lines:     make(chan string, 64),
		stopGrace: defaultStopGrace,
	}
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			e.lines <- scanner.Text()
		}
		close(e.lines)
	}()

	e.send("uci")
	if _, ok := e.waitFor("uciok", 5*time.Second); !ok {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("engine handshake: no uciok from %s", enginePath)
	}
	e.send("isready")
	if _, ok := e.waitFor("readyok", 5*time.Second); !ok {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("engine handshake: no readyok from %s", enginePath)
	}
	return e, nil
}

func (e *UCI) Warm() bool {
	return e.warm.Load()
}

func (e *UCI) send(cmd string) {
	e.stdin.WriteString(cmd + "\n")
	e.stdin.Flush()
}

// waitFor consumes lines until one contains expected, discarding the
// rest.
func (e *UCI) waitFor(expected string, limit time.Duration) (string, bool) {
	deadline := time.After(limit)
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return "", false
			}
			if strings.Contains(line, expected) {
				return line, true
			}
		case <-deadline:
			return "", false
		}
	}
}

func (e *UCI) Analyze(ctx context.Context, fen string, depth int, budgetMs int64) (Analysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	grace := e.stopGrace
	if grace <= 0 {
		grace = defaultStopGrace
	}

	if e.pending {
		// Realign on the bestmove the stopped search still owes before
		// feeding the engine a new one.
		if _, ok := e.waitFor("bestmove", grace); !ok {
			return Analysis{}, fmt.Errorf("engine: previous search never acknowledged stop")
		}
		e.pending = false
	}

	e.send(fmt.Sprintf("position fen %s", fen))
	e.send(fmt.Sprintf("go depth %d movetime %d", depth, budgetMs))

	var out []string
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return Analysis{}, fmt.Errorf("engine: process exited mid-search")
			}
			out = append(out, line)
			if !strings.HasPrefix(line, "bestmove") {
				continue
			}
			res := parseUCIOutput(out, depth, budgetMs)
			if res.BestMove == "" {
				return Analysis{}, fmt.Errorf("engine: invalid response, no bestmove in %d lines", len(out))
			}
			e.warm.Store(true)
			return res, nil
		case <-ctx.Done():
			// Ask the engine to cut the search short so the process
			// stays usable for the next call.
			e.send("stop")
			if _, ok := e.waitFor("bestmove", grace); !ok {
				e.pending = true
			}
			return Analysis{}, fmt.Errorf("engine: analysis timed out after %dms: %w", budgetMs, ctx.Err())
		}
	}
}

func parseUCIOutput(lines []string, depth int, budgetMs int64) Analysis {
	res := Analysis{Depth: depth, TimeMs: budgetMs}
	for _, line := range lines {
		if strings.HasPrefix(line, "info") {
			parts := strings.Fields(line)
			for i, part := range parts {
				switch part {
				case "score":
					if i+2 < len(parts) && parts[i+1] == "cp" {
						fmt.Sscanf(parts[i+2], "%d", &res.Eval)
					}
				case "depth":
					if i+1 < len(parts) {
						fmt.Sscanf(parts[i+1], "%d", &res.Depth)
					}
				case "nodes":
					if i+1 < len(parts) {
						fmt.Sscanf(parts[i+1], "%d", &res.Nodes)
					}
				case "pv":
					if i+1 < len(parts) {
						res.PV = strings.Join(parts[i+1:], " ")
					}
				}
			}
		} else if strings.HasPrefix(line, "bestmove") {
			parts := strings.Fields(line)
			if len(parts) > 1 {
				res.BestMove = parts[1]
			}
		}
	}
	return res
}

func (e *UCI) Close() {
	e.send("quit")
	e.cmd.Wait()
}
