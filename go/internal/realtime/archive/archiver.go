package archive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned by Start on a running archiver.
var ErrAlreadyRunning = errors.New("archiver already running")

// Config controls the background writer.
type Config struct {
	QueueSize    int           `yaml:"queue_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns default archiver configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}

// Archiver queues events from a reconciler and writes them on its own
// goroutine so slow inserts never stall frame dispatch.
type Archiver struct {
	store     *Store
	config    Config
	sessionID string

	queue chan Record

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewArchiver creates an archiver with a fresh session id.
func NewArchiver(store *Store, config Config) *Archiver {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Archiver{
		store:     store,
		config:    config,
		sessionID: uuid.New().String(),
		queue:     make(chan Record, config.QueueSize),
	}
}

// SessionID identifies this process's rows in game_events.
func (a *Archiver) SessionID() string {
	return a.sessionID
}

// Attach queues every event rec appends. The returned function detaches it.
func (a *Archiver) Attach(rec *reconciler.Reconciler) (detach func()) {
	gameID := rec.GameID()
	return rec.SubscribeEvents(func(e reconciler.IndexedEvent) {
		a.enqueue(Record{SessionID: a.sessionID, Seq: e.Seq, GameID: gameID, Event: e.Event})
	})
}

func (a *Archiver) enqueue(r Record) {
	select {
	case a.queue <- r:
	default:
		a.dropped.Add(1)
		log.Warn().Str("game_id", r.GameID).Int("seq", r.Seq).Msg("archive queue full, dropping event")
	}
}

// Start runs the writer until ctx is done, then drains what is queued.
func (a *Archiver) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go a.run(ctx)

	log.Info().
		Str("session_id", a.sessionID).
		Int("queue_size", a.config.QueueSize).
		Msg("event archiver started")
	return nil
}

// Wait blocks until the writer has drained and exited.
func (a *Archiver) Wait() {
	a.wg.Wait()
}

// Written, Dropped and Failed count archived, overflowed and failed records.
func (a *Archiver) Written() uint64 { return a.written.Load() }
func (a *Archiver) Dropped() uint64 { return a.dropped.Load() }
func (a *Archiver) Failed() uint64  { return a.failed.Load() }

func (a *Archiver) run(ctx context.Context) {
	defer a.wg.Done()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	for {
		select {
		case r := <-a.queue:
			a.write(ctx, r)
		case <-ctx.Done():
			a.drain()
			log.Info().Uint64("written", a.Written()).Msg("event archiver stopped")
			return
		}
	}
}

func (a *Archiver) drain() {
	ctx := context.Background()
	for {
		select {
		case r := <-a.queue:
			a.write(ctx, r)
		default:
			return
		}
	}
}

func (a *Archiver) write(ctx context.Context, r Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.WriteTimeout)
	defer cancel()

	if _, err := a.store.Insert(ctx, r); err != nil {
		a.failed.Add(1)
		log.Error().Err(err).Str("game_id", r.GameID).Int("seq", r.Seq).Msg("failed to archive event")
		return
	}
	a.written.Add(1)
}
