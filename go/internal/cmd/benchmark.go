package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mcdev12/werewolf/go/internal/benchmark"
	"github.com/mcdev12/werewolf/go/internal/benchmark/poller"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/rs/zerolog/log"
)

func runBenchmark(args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	numGames := fs.Int("games", 10, "number of games to run")
	preset := fs.String("preset", "6p", "game preset")
	follow := fs.String("follow", "", "follow an existing benchmark id instead of starting one")
	cancelID := fs.String("cancel", "", "cancel a running benchmark id and exit")
	keep := fs.Bool("keep", false, "leave the benchmark running on interrupt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	client := newClient(cfg)
	tracker := benchmark.NewTracker(client, poller.New(cfg.PollerConfig(), nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *cancelID != "" {
		return tracker.Cancel(ctx, *cancelID)
	}

	var current string
	tracker.Subscribe(func(b models.Benchmark) {
		current = b.ID
		log.Info().
			Str("benchmark_id", b.ID).
			Str("status", string(b.Status)).
			Str("progress", fmt.Sprintf("%d/%d", b.CompletedGames, b.TotalGames)).
			Msg("benchmark progress")
	})

	var final models.Benchmark
	if *follow != "" {
		initial, err := client.GetBenchmark(ctx, *follow)
		if err != nil {
			return fmt.Errorf("failed to get benchmark: %w", err)
		}
		final, err = tracker.Follow(ctx, initial)
	} else {
		final, err = tracker.Run(ctx, models.BenchmarkRequest{NumGames: *numGames, Preset: *preset})
	}

	if errors.Is(err, context.Canceled) && current != "" && !*keep {
		cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := tracker.Cancel(cancelCtx, current); cerr != nil {
			log.Error().Err(cerr).Str("benchmark_id", current).Msg("failed to cancel benchmark")
		}
		return nil
	}
	if err != nil {
		return err
	}

	printResults(final)
	if final.Status == models.JobStatusError {
		return fmt.Errorf("benchmark %s failed", final.ID)
	}
	return nil
}

func printResults(b models.Benchmark) {
	fmt.Printf("benchmark %s: %s (%d/%d games)\n", b.ID, b.Status, b.CompletedGames, b.TotalGames)
	r := b.Results
	if r == nil {
		return
	}
	if r.Error != "" {
		fmt.Printf("  error: %s\n", r.Error)
	}

	factions := make([]string, 0, len(r.WinRates))
	for f := range r.WinRates {
		factions = append(factions, f)
	}
	sort.Strings(factions)
	for _, f := range factions {
		fmt.Printf("  %-10s %5.1f%% (%d wins)\n", f, r.WinRates[f]*100, r.Wins[f])
	}
	fmt.Printf("  rounds: avg %.1f, min %d, max %d\n", r.AvgRounds, r.MinRounds, r.MaxRounds)
	fmt.Printf("  duration: avg %.1fs, total %.1fs\n", r.AvgDuration, r.TotalDuration)
}
