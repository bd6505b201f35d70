package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/werewolf/go/internal/config"
	"github.com/mcdev12/werewolf/go/internal/realtime/archive"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/mcdev12/werewolf/go/internal/realtime/relay"
	"github.com/mcdev12/werewolf/go/internal/realtime/session"
	"github.com/mcdev12/werewolf/go/internal/realtime/transport"
	"github.com/mcdev12/werewolf/go/internal/realtime/viewapi"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Services is everything a watch runs.
type Services struct {
	Session  *session.Session
	Stream   *viewapi.Stream
	Relay    *relay.Relay
	Archiver *archive.Archiver

	nats        *nats.Conn
	pool        *pgxpool.Pool
	stopArchive context.CancelFunc
}

// setupServices connects the optional sinks first, so they are attached before
// the session's first snapshot arrives.
func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{}

	if cfg.Relay.Enabled {
		nc, err := relay.Connect(cfg.RelayConfig())
		if err != nil {
			return nil, err
		}
		s.nats = nc
		s.Relay = relay.New(nc, cfg.Relay.SubjectPrefix)
	}

	if cfg.Archive.Enabled {
		pool, archiver, err := setupDatabase(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.pool = pool
		s.Archiver = archiver

		archiveCtx, cancel := context.WithCancel(ctx)
		s.stopArchive = cancel
		if err := archiver.Start(archiveCtx); err != nil {
			s.Close()
			return nil, err
		}
	}

	sess, err := session.Open(session.Config{
		BaseURL:   cfg.Server.BaseURL,
		GameID:    cfg.Watch.GameID,
		PlayerID:  cfg.Watch.PlayerID,
		Transport: cfg.TransportConfig(),
	}, session.WithAttach(func(rec *reconciler.Reconciler) {
		s.Stream = viewapi.NewStream(rec, viewapi.DefaultStreamConfig())
		if s.Relay != nil {
			s.Relay.Attach(rec)
		}
		if s.Archiver != nil {
			s.Archiver.Attach(rec)
		}
		rec.SubscribeErrors(func(msg string) {
			log.Error().Str("game_id", rec.GameID()).Str("message", msg).Msg("game server error")
		})
	}))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	s.Session = sess

	sess.WatchState(func(state transport.State) {
		log.Info().Str("game_id", sess.GameID()).Str("state", state.String()).Msg("connection state changed")
	})

	return s, nil
}

// Close stops the session and the sinks. Queued events are archived before
// the pool closes.
func (s *Services) Close() {
	if s.Session != nil {
		s.Session.Close()
		s.Session.Wait()
	}
	if s.Stream != nil {
		s.Stream.Close()
	}
	if s.stopArchive != nil {
		s.stopArchive()
		s.Archiver.Wait()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
