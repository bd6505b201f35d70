// Package poller runs a fixed-interval pull loop against a job-status source
// until a caller-supplied stop condition holds.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrTooManyFailures is returned when MaxConsecutiveFailures polls in a row fail.
var ErrTooManyFailures = errors.New("too many consecutive poll failures")

// FetchFunc fetches the latest record of a job.
type FetchFunc func(ctx context.Context, jobID string) (models.Benchmark, error)

// StopFunc decides, from the latest record, whether polling is finished.
type StopFunc func(models.Benchmark) bool

// Config holds poller settings
type Config struct {
	Interval               time.Duration
	MaxConsecutiveFailures int // zero or less retries failed polls forever
}

// DefaultConfig returns the default poll policy
func DefaultConfig() Config {
	return Config{
		Interval:               time.Second,
		MaxConsecutiveFailures: 3,
	}
}

// Poller schedules polls. It keeps no job state between runs.
type Poller struct {
	config Config
	clock  clockwork.Clock
}

// New creates a poller. A nil clock uses the real clock.
func New(config Config, clock clockwork.Clock) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{config: config, clock: clock}
}

// Run polls fetch once per interval, starting one interval after the call, and
// hands every successfully fetched record to onUpdate. It returns the latest
// record once stop reports true for it, when ctx is cancelled, or after too many
// consecutive failures. A failed poll keeps the previous record.
//
// Cancelling ctx stops scheduling; a poll already in flight runs to completion
// on a context detached from ctx and its result is discarded.
func (p *Poller) Run(ctx context.Context, initial models.Benchmark, fetch FetchFunc, stop StopFunc, onUpdate func(models.Benchmark)) (models.Benchmark, error) {
	if stop == nil {
		stop = Terminal
	}
	latest := initial
	if stop(latest) {
		return latest, nil
	}

	ticker := p.clock.NewTicker(p.config.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return latest, ctx.Err()
		case <-ticker.Chan():
		}
		// a tick and cancellation can be ready together; cancellation wins
		if ctx.Err() != nil {
			return latest, ctx.Err()
		}

		record, err := fetch(context.WithoutCancel(ctx), initial.ID)
		if ctx.Err() != nil {
			return latest, ctx.Err()
		}
		if err != nil {
			failures++
			log.Warn().
				Err(err).
				Str("benchmark_id", initial.ID).
				Int("consecutive_failures", failures).
				Msg("benchmark poll failed")

			if p.config.MaxConsecutiveFailures > 0 && failures >= p.config.MaxConsecutiveFailures {
				return latest, fmt.Errorf("%w: %d in a row: %w", ErrTooManyFailures, failures, err)
			}
			continue
		}

		failures = 0
		latest = record
		if onUpdate != nil {
			onUpdate(record)
		}

		log.Debug().
			Str("benchmark_id", record.ID).
			Str("status", string(record.Status)).
			Int("completed_games", record.CompletedGames).
			Int("total_games", record.TotalGames).
			Msg("benchmark polled")

		if stop(record) {
			return record, nil
		}
	}
}

// Terminal is the default stop condition: the job reached a terminal status.
func Terminal(b models.Benchmark) bool {
	return b.Status.Terminal()
}
