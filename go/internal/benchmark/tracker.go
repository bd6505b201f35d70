// Package benchmark starts benchmark jobs and follows their progress until they
// finish.
package benchmark

import (
	"context"
	"fmt"

	"github.com/mcdev12/werewolf/go/internal/benchmark/poller"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/feed"
	"github.com/rs/zerolog/log"
)

// Client is the job-status collaborator. *werewolf_client.WerewolfClient satisfies it.
type Client interface {
	StartBenchmark(ctx context.Context, req models.BenchmarkRequest) (models.Benchmark, error)
	GetBenchmark(ctx context.Context, benchmarkID string) (models.Benchmark, error)
	CancelBenchmark(ctx context.Context, benchmarkID string) (string, error)
}

// Tracker publishes every record it receives for a benchmark to its subscribers.
type Tracker struct {
	client  Client
	poller  *poller.Poller
	updates feed.Feed[models.Benchmark]
}

func NewTracker(client Client, p *poller.Poller) *Tracker {
	return &Tracker{client: client, poller: p}
}

// Subscribe registers fn for every received record, including the initial one.
func (t *Tracker) Subscribe(fn func(models.Benchmark)) (unsubscribe func()) {
	return t.updates.Subscribe(fn)
}

// Run starts a benchmark and follows it to a terminal status.
func (t *Tracker) Run(ctx context.Context, req models.BenchmarkRequest) (models.Benchmark, error) {
	initial, err := t.client.StartBenchmark(ctx, req)
	if err != nil {
		return models.Benchmark{}, err
	}

	log.Info().
		Str("benchmark_id", initial.ID).
		Int("total_games", initial.TotalGames).
		Str("preset", req.Preset).
		Msg("benchmark started")

	return t.Follow(ctx, initial)
}

// Follow polls an existing benchmark until it reaches a terminal status.
func (t *Tracker) Follow(ctx context.Context, initial models.Benchmark) (models.Benchmark, error) {
	t.updates.Publish(initial)

	final, err := t.poller.Run(ctx, initial, t.client.GetBenchmark, poller.Terminal, t.updates.Publish)
	if err != nil {
		return final, fmt.Errorf("follow benchmark %s: %w", initial.ID, err)
	}

	log.Info().
		Str("benchmark_id", final.ID).
		Str("status", string(final.Status)).
		Int("completed_games", final.CompletedGames).
		Msg("benchmark finished")
	return final, nil
}

// Cancel asks the server to stop a running benchmark.
func (t *Tracker) Cancel(ctx context.Context, benchmarkID string) error {
	msg, err := t.client.CancelBenchmark(ctx, benchmarkID)
	if err != nil {
		return err
	}
	log.Info().Str("benchmark_id", benchmarkID).Str("message", msg).Msg("benchmark cancel requested")
	return nil
}
