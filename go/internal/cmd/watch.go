package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	gameID := fs.String("game", "", "game id to watch (overrides GAME_ID)")
	playerID := fs.Int("player", -1, "seat id to play as; omit to spectate")
	addr := fs.String("addr", "", "view API listen address (overrides VIEW_ADDR)")
	relayOn := fs.Bool("relay", false, "republish to NATS")
	archiveOn := fs.Bool("archive", false, "archive events to Postgres")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *gameID != "" {
		cfg.Watch.GameID = *gameID
	}
	if *playerID >= 0 {
		id := *playerID
		cfg.Watch.PlayerID = &id
	}
	if *addr != "" {
		cfg.Watch.ListenAddr = *addr
	}
	cfg.Relay.Enabled = cfg.Relay.Enabled || *relayOn
	cfg.Archive.Enabled = cfg.Archive.Enabled || *archiveOn
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg.Watch.ListenAddr, services)

	log.Info().
		Str("game_id", cfg.Watch.GameID).
		Str("url", services.Session.URL()).
		Str("addr", server.Addr).
		Bool("relay", cfg.Relay.Enabled).
		Bool("archive", cfg.Archive.Enabled).
		Msg("watching game")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("watch shutdown complete")
	return nil
}
