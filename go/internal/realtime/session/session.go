// Package session wires a game connection, its reconciler and its action
// gateway into one handle per watched game.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/actions"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/mcdev12/werewolf/go/internal/realtime/transport"
	"github.com/rs/zerolog/log"
)

const unknownServerError = "Unknown error"

// Config identifies the game to watch and how to reach it.
type Config struct {
	BaseURL   string
	GameID    string
	PlayerID  *int // nil watches as a spectator
	Transport transport.Config
}

// Option customizes Open
type Option func(*options)

type options struct {
	transportOpts []transport.Option
	attach        []func(*reconciler.Reconciler)
}

// WithTransportOptions passes options through to the transport manager.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

// WithAttach runs fn against the reconciler before the first connection attempt,
// so subscribers it registers see the very first snapshot.
func WithAttach(fn func(*reconciler.Reconciler)) Option {
	return func(o *options) { o.attach = append(o.attach, fn) }
}

// Session is the live view of one game.
type Session struct {
	gameID     string
	url        string
	manager    *transport.Manager
	reconciler *reconciler.Reconciler
	gateway    *actions.Gateway
}

// Open starts connecting to the game. The returned session keeps reconnecting
// until Close.
func Open(cfg Config, opts ...Option) (*Session, error) {
	url, err := transport.GameURL(cfg.BaseURL, cfg.GameID, cfg.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("build game url: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rec := reconciler.New(cfg.GameID)
	for _, fn := range o.attach {
		fn(rec)
	}

	s := &Session{
		gameID:     cfg.GameID,
		url:        url,
		reconciler: rec,
	}

	dispatcher := transport.NewDispatcher()
	dispatcher.Handle(models.MessageTypeGameState, s.handleGameState)
	dispatcher.Handle(models.MessageTypeEvent, s.handleEvent)
	dispatcher.Handle(models.MessageTypeError, s.handleError)

	s.manager = transport.NewManager(url, dispatcher, cfg.Transport, o.transportOpts...)
	s.gateway = actions.NewGateway(cfg.GameID, s.manager)

	log.Info().Str("game_id", cfg.GameID).Str("url", url).Msg("session opened")
	return s, nil
}

func (s *Session) handleGameState(env models.Envelope) error {
	var snapshot models.Snapshot
	if err := decodeData(env, &snapshot); err != nil {
		return err
	}
	s.reconciler.OnSnapshot(snapshot)
	return nil
}

func (s *Session) handleEvent(env models.Envelope) error {
	var event models.Event
	if err := decodeData(env, &event); err != nil {
		return err
	}
	s.reconciler.OnEvent(event)
	return nil
}

// handleError never rejects a frame; unreadable error payloads still surface
// as a server error.
func (s *Session) handleError(env models.Envelope) error {
	var payload models.ErrorPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Warn().Err(err).Str("game_id", s.gameID).Msg("malformed error payload")
		}
	}
	msg := payload.Message
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = unknownServerError
	}
	s.reconciler.OnServerError(msg)
	return nil
}

func decodeData(env models.Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s frame without data", env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", env.Type, err)
	}
	return nil
}

func (s *Session) GameID() string {
	return s.gameID
}

// URL returns the websocket address this session connects to
func (s *Session) URL() string {
	return s.url
}

// Connected is the connectivity indicator shown to users.
func (s *Session) Connected() bool {
	return s.manager.Connected()
}

func (s *Session) State() transport.State {
	return s.manager.State()
}

// WatchState subscribes to connection state transitions
func (s *Session) WatchState(fn func(transport.State)) (unsubscribe func()) {
	return s.manager.WatchState(fn)
}

func (s *Session) Stats() transport.Stats {
	return s.manager.Stats()
}

// Reconciler exposes the snapshot and event log.
func (s *Session) Reconciler() *reconciler.Reconciler {
	return s.reconciler
}

// Actions exposes the outbound intent surface.
func (s *Session) Actions() *actions.Gateway {
	return s.gateway
}

// Close disposes the connection. It is safe to call more than once.
func (s *Session) Close() {
	s.manager.Dispose()
}

// Wait blocks until the connection goroutines have exited after Close.
func (s *Session) Wait() {
	s.manager.Wait()
}
