package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/werewolf/go/internal/config"
	"github.com/mcdev12/werewolf/go/internal/realtime/archive"
	"github.com/rs/zerolog/log"
)

func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *archive.Archiver, error) {
	dbConfig := cfg.Archive.Database

	pool, err := archive.Connect(ctx, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	store := archive.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to prepare archive schema: %w", err)
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")

	return pool, archive.NewArchiver(store, cfg.ArchiveConfig()), nil
}
