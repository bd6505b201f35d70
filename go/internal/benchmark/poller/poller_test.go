package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/werewolf/go/internal/models"
)

type result struct {
	record models.Benchmark
	err    error
}

func start(t *testing.T, ctx context.Context, p *Poller, initial models.Benchmark, fetch FetchFunc, onUpdate func(models.Benchmark)) <-chan result {
	t.Helper()
	done := make(chan result, 1)
	go func() {
		rec, err := p.Run(ctx, initial, fetch, nil, onUpdate)
		done <- result{rec, err}
	}()
	return done
}

func blockUntilTicker(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker never armed: %v", err)
	}
}

func TestRunStopsAfterTerminalStatus(t *testing.T) {
	const k = 4
	clock := clockwork.NewFakeClock()
	p := New(DefaultConfig(), clock)

	var calls atomic.Int32
	polled := make(chan struct{})
	fetch := func(ctx context.Context, id string) (models.Benchmark, error) {
		n := calls.Add(1)
		defer func() { polled <- struct{}{} }()
		if n <= k {
			return models.Benchmark{ID: id, Status: models.JobStatusRunning, TotalGames: 10, CompletedGames: int(n)}, nil
		}
		return models.Benchmark{ID: id, Status: models.JobStatusCompleted, TotalGames: 10, CompletedGames: 10}, nil
	}

	var updates []int
	done := start(t, context.Background(), p, models.Benchmark{ID: "b1", Status: models.JobStatusRunning}, fetch,
		func(b models.Benchmark) { updates = append(updates, b.CompletedGames) })

	blockUntilTicker(t, clock)
	for i := 0; i < k+1; i++ {
		clock.Advance(time.Second)
		<-polled
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("run: %v", res.err)
	}
	if res.record.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", res.record.Status)
	}

	clock.Advance(10 * time.Second)
	if got := calls.Load(); got != k+1 {
		t.Fatalf("expected exactly %d polls, got %d", k+1, got)
	}
	if len(updates) != k+1 || updates[k] != 10 {
		t.Fatalf("unexpected updates: %v", updates)
	}
}

func TestRunDoesNotPollTerminalInitialRecord(t *testing.T) {
	p := New(DefaultConfig(), clockwork.NewFakeClock())
	fetch := func(ctx context.Context, id string) (models.Benchmark, error) {
		t.Fatalf("fetch must not be called")
		return models.Benchmark{}, nil
	}

	rec, err := p.Run(context.Background(), models.Benchmark{ID: "b1", Status: models.JobStatusError}, fetch, nil, nil)
	if err != nil || rec.Status != models.JobStatusError {
		t.Fatalf("unexpected result: %+v, %v", rec, err)
	}
}

func TestRunFailsAfterConsecutiveErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(DefaultConfig(), clock)

	boom := errors.New("connection reset")
	var calls atomic.Int32
	polled := make(chan struct{})
	fetch := func(ctx context.Context, id string) (models.Benchmark, error) {
		n := calls.Add(1)
		defer func() { polled <- struct{}{} }()
		// one success between failures resets the count
		if n == 2 {
			return models.Benchmark{ID: id, Status: models.JobStatusRunning, CompletedGames: 1}, nil
		}
		return models.Benchmark{}, boom
	}

	initial := models.Benchmark{ID: "b1", Status: models.JobStatusRunning}
	done := start(t, context.Background(), p, initial, fetch, nil)

	blockUntilTicker(t, clock)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		<-polled
	}

	res := <-done
	if !errors.Is(res.err, ErrTooManyFailures) || !errors.Is(res.err, boom) {
		t.Fatalf("expected ErrTooManyFailures wrapping the last error, got %v", res.err)
	}
	if res.record.CompletedGames != 1 {
		t.Fatalf("expected the last good record to be kept, got %+v", res.record)
	}
	if calls.Load() != 5 {
		t.Fatalf("expected 5 polls, got %d", calls.Load())
	}
}

func TestRunStopsSchedulingOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(DefaultConfig(), clock)

	var calls atomic.Int32
	fetch := func(ctx context.Context, id string) (models.Benchmark, error) {
		calls.Add(1)
		return models.Benchmark{ID: id, Status: models.JobStatusRunning}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := start(t, ctx, p, models.Benchmark{ID: "b1", Status: models.JobStatusRunning}, fetch, nil)
	blockUntilTicker(t, clock)
	cancel()

	res := <-done
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.err)
	}
	clock.Advance(5 * time.Second)
	if calls.Load() != 0 {
		t.Fatalf("expected no polls after cancel, got %d", calls.Load())
	}
}

func TestRunNeverPollsAfterCancelDuringPoll(t *testing.T) {
	for i := 0; i < 50; i++ {
		clock := clockwork.NewFakeClock()
		p := New(DefaultConfig(), clock)
		ctx, cancel := context.WithCancel(context.Background())

		var calls atomic.Int32
		fetch := func(context.Context, string) (models.Benchmark, error) {
			calls.Add(1)
			cancel()
			clock.Advance(time.Second)
			return models.Benchmark{ID: "b1", Status: models.JobStatusRunning, CompletedGames: 1}, nil
		}

		var updates atomic.Int32
		done := start(t, ctx, p, models.Benchmark{ID: "b1", Status: models.JobStatusRunning}, fetch,
			func(models.Benchmark) { updates.Add(1) })

		blockUntilTicker(t, clock)
		clock.Advance(time.Second)

		res := <-done
		if !errors.Is(res.err, context.Canceled) {
			t.Fatalf("run %d: expected context.Canceled, got %v", i, res.err)
		}
		if got := calls.Load(); got != 1 {
			t.Fatalf("run %d: expected 1 poll, got %d", i, got)
		}
		if updates.Load() != 0 || res.record.CompletedGames != 0 {
			t.Fatalf("run %d: result of a poll finished after cancel must be discarded", i)
		}
	}
}

func TestCustomStopCondition(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(DefaultConfig(), clock)

	polled := make(chan struct{}, 10)
	fetch := func(ctx context.Context, id string) (models.Benchmark, error) {
		polled <- struct{}{}
		return models.Benchmark{ID: id, Status: models.JobStatusRunning, TotalGames: 10, CompletedGames: 5}, nil
	}
	halfway := func(b models.Benchmark) bool { return b.Progress() >= 0.5 }

	done := make(chan result, 1)
	go func() {
		rec, err := p.Run(context.Background(), models.Benchmark{ID: "b1", Status: models.JobStatusRunning, TotalGames: 10}, fetch, halfway, nil)
		done <- result{rec, err}
	}()

	blockUntilTicker(t, clock)
	clock.Advance(time.Second)
	res := <-done
	if res.err != nil || res.record.CompletedGames != 5 {
		t.Fatalf("unexpected result: %+v, %v", res.record, res.err)
	}
	if len(polled) != 1 {
		t.Fatalf("expected one poll, got %d", len(polled))
	}
}
