// Package reconciler holds the last known snapshot of a game and the append-only
// log of its events.
//
// A snapshot always replaces the previous one in full. Events are appended in the
// order they are received and are never reordered, edited, removed or
// deduplicated; a frame delivered twice appears twice.
package reconciler

import (
	"sync"

	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/feed"
	"github.com/rs/zerolog/log"
)

// Reconciler owns a game's snapshot and event log. Readers and subscribers only
// ever receive copies.
type Reconciler struct {
	gameID string

	mu       sync.RWMutex
	snapshot *models.Snapshot
	events   []models.Event

	snapshots feed.Feed[models.Snapshot]
	appended  feed.Feed[IndexedEvent]
	errors    feed.Feed[string]
}

// IndexedEvent is an appended event and its 0-based position in the log.
type IndexedEvent struct {
	Seq   int
	Event models.Event
}

// New creates an empty reconciler for gameID
func New(gameID string) *Reconciler {
	return &Reconciler{gameID: gameID}
}

// GameID returns the game this reconciler tracks.
func (r *Reconciler) GameID() string {
	return r.gameID
}

// OnSnapshot replaces the held snapshot with s and publishes it.
func (r *Reconciler) OnSnapshot(s models.Snapshot) models.Snapshot {
	held := s.Clone()

	r.mu.Lock()
	r.snapshot = &held
	r.mu.Unlock()

	log.Debug().
		Str("game_id", r.gameID).
		Str("status", string(s.Status)).
		Str("phase", s.Phase).
		Int("round", s.Round).
		Msg("snapshot replaced")

	r.snapshots.Publish(held.Clone())
	return held.Clone()
}

// OnEvent appends e to the log and publishes only the appended event.
func (r *Reconciler) OnEvent(e models.Event) {
	held := e.Clone()

	r.mu.Lock()
	r.events = append(r.events, held)
	seq := len(r.events) - 1
	r.mu.Unlock()

	log.Debug().
		Str("game_id", r.gameID).
		Int("seq", seq).
		Str("event_type", string(e.EventType)).
		Msg("event appended")

	r.appended.Publish(IndexedEvent{Seq: seq, Event: held.Clone()})
}

// OnServerError forwards a server-reported error to error subscribers. It does
// not touch the snapshot or the log.
func (r *Reconciler) OnServerError(message string) {
	log.Warn().Str("game_id", r.gameID).Str("message", message).Msg("server reported error")
	r.errors.Publish(message)
}

// Snapshot returns a copy of the held snapshot, if any has arrived.
func (r *Reconciler) Snapshot() (models.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil {
		return models.Snapshot{}, false
	}
	return r.snapshot.Clone(), true
}

// Events returns a copy of the whole log.
func (r *Reconciler) Events() []models.Event {
	return r.EventsSince(0)
}

// EventsSince returns a copy of the log from position seq onwards.
func (r *Reconciler) EventsSince(seq int) []models.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(r.events) {
		return []models.Event{}
	}
	out := make([]models.Event, 0, len(r.events)-seq)
	for _, e := range r.events[seq:] {
		out = append(out, e.Clone())
	}
	return out
}

// Len returns the number of logged events
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

func (r *Reconciler) SubscribeSnapshots(fn func(models.Snapshot)) (unsubscribe func()) {
	return r.snapshots.Subscribe(fn)
}

func (r *Reconciler) SubscribeEvents(fn func(IndexedEvent)) (unsubscribe func()) {
	return r.appended.Subscribe(fn)
}

func (r *Reconciler) SubscribeErrors(fn func(string)) (unsubscribe func()) {
	return r.errors.Subscribe(fn)
}
