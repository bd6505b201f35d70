package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRunGamesLifecycle(t *testing.T) {
	var seed string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games/g1/start", func(w http.ResponseWriter, r *http.Request) {
		seed = r.URL.Query().Get("seed")
		writeJSONResponse(w, map[string]string{"message": "Game started"})
	})
	mux.HandleFunc("POST /api/games/g1/pause", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]string{"message": "Game paused"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if err := runGames([]string{"start", "-url", srv.URL, "-seed", "42", "g1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if seed != "42" {
		t.Fatalf("expected seed 42, got %q", seed)
	}
	if err := runGames([]string{"pause", "-url", srv.URL, "g1"}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := runGames([]string{"resume", "-url", srv.URL, "g1"}); err == nil {
		t.Fatalf("expected error for unhandled endpoint")
	}
}

func TestRunGamesRequiresGameID(t *testing.T) {
	if err := runGames([]string{"get", "-url", "http://127.0.0.1:1"}); err == nil {
		t.Fatalf("expected missing game id error")
	}
	if err := runGames([]string{"explode"}); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if err := runGames(nil); err == nil {
		t.Fatalf("expected usage error")
	}
}

func TestRunBenchmarkPollsToCompletion(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "10ms")

	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/benchmark", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]any{"benchmark_id": "b1", "status": "running", "total_games": 2})
	})
	mux.HandleFunc("GET /api/benchmark/b1", func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		body := map[string]any{"benchmark_id": "b1", "status": "running", "total_games": 2, "completed_games": 1}
		if n >= 2 {
			body["status"] = "completed"
			body["completed_games"] = 2
			body["results"] = map[string]any{
				"win_rates": map[string]float64{"villager": 0.5, "werewolf": 0.5},
				"wins":      map[string]int{"villager": 1, "werewolf": 1},
			}
		}
		writeJSONResponse(w, body)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if err := runBenchmark([]string{"-url", srv.URL, "-games", "2"}); err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if got := polls.Load(); got != 2 {
		t.Fatalf("expected 2 polls, got %d", got)
	}
}

func TestRunBenchmarkCancel(t *testing.T) {
	var cancelled atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/benchmark/b1/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancelled.Store(true)
		writeJSONResponse(w, map[string]string{"message": "Benchmark cancelled"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if err := runBenchmark([]string{"-url", srv.URL, "-cancel", "b1"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.Load() {
		t.Fatalf("cancel endpoint not called")
	}
}
