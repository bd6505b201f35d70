// Package relay republishes a watched game's snapshots and events onto NATS so
// other processes can follow the game without their own websocket.
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher is the part of *nats.Conn the relay needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Config holds NATS connection and subject settings
type Config struct {
	URL           string
	SubjectPrefix string // subjects are <prefix>.<game id>.state and .events
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default relay configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "werewolf.games",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Message is the body published for both snapshots and events.
type Message struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Type      string          `json:"type"`
	Seq       *int            `json:"seq,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Relay forwards one reconciler's output to a publisher.
type Relay struct {
	publisher Publisher
	prefix    string
	now       func() time.Time
}

// Connect dials NATS, logging disconnects and reconnects.
func Connect(cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("werewolf-watch"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// New creates a relay publishing under prefix.
func New(publisher Publisher, prefix string) *Relay {
	if prefix == "" {
		prefix = DefaultConfig().SubjectPrefix
	}
	return &Relay{publisher: publisher, prefix: prefix, now: time.Now}
}

// Attach subscribes the relay to rec. The returned function detaches it.
func (r *Relay) Attach(rec *reconciler.Reconciler) (detach func()) {
	gameID := rec.GameID()
	unsubSnapshots := rec.SubscribeSnapshots(func(s models.Snapshot) {
		r.publish(gameID, "state", nil, s)
	})
	unsubEvents := rec.SubscribeEvents(func(e reconciler.IndexedEvent) {
		seq := e.Seq
		r.publish(gameID, "events", &seq, e.Event)
	})
	return func() {
		unsubSnapshots()
		unsubEvents()
	}
}

// Subject returns the subject used for a game and kind ("state" or "events").
func (r *Relay) Subject(gameID, kind string) string {
	return r.prefix + "." + gameID + "." + kind
}

func (r *Relay) publish(gameID, kind string, seq *int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to marshal relay payload")
		return
	}

	msg, err := json.Marshal(Message{
		ID:        uuid.New().String(),
		GameID:    gameID,
		Type:      kind,
		Seq:       seq,
		Timestamp: r.now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to marshal relay message")
		return
	}

	subject := r.Subject(gameID, kind)
	if err := r.publisher.Publish(subject, msg); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish to NATS")
		return
	}

	log.Debug().Str("subject", subject).Int("bytes", len(msg)).Msg("relayed")
}
