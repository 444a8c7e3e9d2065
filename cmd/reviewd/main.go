package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/richlegrande-dot/Chess-sub014/internal/config"
	"github.com/richlegrande-dot/Chess-sub014/internal/cpumove"
	"github.com/richlegrande-dot/Chess-sub014/internal/engine"
	"github.com/richlegrande-dot/Chess-sub014/internal/review"
	"github.com/richlegrande-dot/Chess-sub014/internal/telemetry"
)

const defaultMoveBudgetMs = 2000

type reviewRequest struct {
	PGN               string `json:"pgn"`
	Priority          string `json:"priority"`
	RemainingBudgetMs int64  `json:"remaining_budget_ms"`
}

type moveRequest struct {
	FEN               string `json:"fen"`
	Depth             int    `json:"depth"`
	RemainingBudgetMs int64  `json:"remaining_budget_ms"`
}

type telemetryResponse struct {
	Stats          cpumove.StatsSnapshot `json:"stats"`
	LatencySamples int                   `json:"latency_samples"`
	ForecastMs     int64                 `json:"forecast_ms"`
	EngineWarm     bool                  `json:"engine_warm"`
}

type app struct {
	store    *config.Store
	eng      engine.Engine
	history  *engine.History
	governor *cpumove.Governor
	hub      *telemetry.Hub

	mu       sync.RWMutex
	pipeline *review.Pipeline
}

func (a *app) rebuildPipeline() error {
	pipeline, err := review.NewPipeline(a.store.Get(), a.eng, a.history, a.publishReviewEvent)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.pipeline = pipeline
	a.mu.Unlock()
	return nil
}

func (a *app) currentPipeline() *review.Pipeline {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipeline
}

func (a *app) publishReviewEvent(event review.Event) {
	a.hub.Publish(telemetry.Payload{
		Event:     event.Event,
		ReviewID:  event.ReviewID,
		Tier:      event.Tier,
		Reason:    event.Reason,
		Ply:       event.Ply,
		LatencyMs: event.LatencyMs,
	})
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("[backend] config: %v", err)
		}
		cfg = loaded
	}

	var eng engine.Engine
	switch {
	case cfg.EnginePath != "":
		uci, err := engine.NewUCI(cfg.EnginePath)
		if err != nil {
			log.Fatalf("[backend] engine: %v", err)
		}
		defer uci.Close()
		eng = uci
	case cfg.EngineURL != "":
		eng = engine.NewRemote(cfg.EngineURL, &http.Client{Timeout: 30 * time.Second})
	default:
		log.Fatalf("[backend] no engine configured, set engine_path or engine_url")
	}

	a := &app{
		store:   config.NewStore(cfg),
		eng:     eng,
		history: engine.NewHistory(cfg.LatencyWindow),
		hub:     telemetry.NewHub(),
	}
	a.governor = cpumove.NewGovernor(eng, cpumove.LocalMover{}, a.history, cpumove.NewStats(cfg.MoveStatsWindow))
	if err := a.rebuildPipeline(); err != nil {
		log.Fatalf("[backend] pipeline: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.hub.Run(ctx.Done())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/review", func(w http.ResponseWriter, r *http.Request) {
		var payload reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		report := a.currentPipeline().Review(r.Context(), payload.PGN, review.ParsePriority(payload.Priority), payload.RemainingBudgetMs)
		writeJSON(w, http.StatusOK, report)
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload moveRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		cfg := a.store.Get()
		if payload.Depth <= 0 {
			payload.Depth = cfg.TierA.Depth
		}
		if payload.RemainingBudgetMs <= 0 {
			payload.RemainingBudgetMs = defaultMoveBudgetMs
		}
		moveCtx, moveCancel := context.WithTimeout(r.Context(), time.Duration(payload.RemainingBudgetMs)*time.Millisecond)
		defer moveCancel()

		result, err := a.governor.PlayMove(moveCtx, payload.FEN, payload.Depth, payload.RemainingBudgetMs)
		a.hub.Publish(telemetry.Payload{
			Event:        "move_played",
			LatencyMs:    result.Telemetry.LatencyMs,
			FallbackUsed: result.Telemetry.FallbackUsed,
		})
		if err != nil {
			var governance *cpumove.GovernanceError
			status := http.StatusBadGateway
			if errors.As(err, &governance) {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/api/telemetry", func(w http.ResponseWriter, r *http.Request) {
		snapshot := a.history.Snapshot()
		writeJSON(w, http.StatusOK, telemetryResponse{
			Stats:          a.governor.Stats().Snapshot(),
			LatencySamples: len(snapshot),
			ForecastMs:     review.Estimate(snapshot),
			EngineWarm:     a.eng.Warm(),
		})
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.store.Get())
	})

	r.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		updated := a.store.Get()
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if _, err := review.NewTierSet(updated); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		a.store.Update(updated)
		if err := a.rebuildPipeline(); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, a.store.Get())
	})

	r.Get("/ws/telemetry", func(w http.ResponseWriter, r *http.Request) {
		telemetry.ServeWS(a.hub, w, r)
	})

	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Printf("[backend] listening on %s", cfg.ServerAddr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[backend] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[backend] graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[backend] forced close failed: %v", closeErr)
		}
	}

	cancel()
	if runErr != nil {
		log.Printf("[backend] exiting after server error: %v", runErr)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
