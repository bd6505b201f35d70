// Package archive appends every event a watched session receives to Postgres.
package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/werewolf/go/internal/models"
)

// Execer is the part of *pgxpool.Pool the store uses.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS game_events (
    session_id  UUID        NOT NULL,
    seq         INTEGER     NOT NULL,
    game_id     TEXT        NOT NULL,
    round       INTEGER     NOT NULL,
    phase       TEXT        NOT NULL,
    event_type  TEXT        NOT NULL,
    description TEXT        NOT NULL,
    details     JSONB,
    emitted_at  TEXT        NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, seq)
)`

const insertEvent = `
INSERT INTO game_events (
  session_id, seq, game_id, round, phase, event_type, description, details, emitted_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
ON CONFLICT (session_id, seq) DO NOTHING`

// Record is one archived event.
type Record struct {
	SessionID string
	Seq       int
	GameID    string
	Event     models.Event
}

// Store writes records to the game_events table.
type Store struct {
	db Execer
}

// Connect opens a pgx pool and verifies it.
func Connect(ctx context.Context, cfg DBConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewStore creates a store on db
func NewStore(db Execer) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the game_events table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create game_events table: %w", err)
	}
	return nil
}

// Insert stores r. It reports false when the row already existed.
func (s *Store) Insert(ctx context.Context, r Record) (bool, error) {
	details, err := r.Event.RawDetails()
	if err != nil {
		return false, fmt.Errorf("marshal event details: %w", err)
	}

	tag, err := s.db.Exec(ctx, insertEvent,
		r.SessionID, r.Seq, r.GameID, r.Event.Round, r.Event.Phase,
		string(r.Event.EventType), r.Event.Description, []byte(details), r.Event.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert event %d for game %s: %w", r.Seq, r.GameID, err)
	}
	return tag.RowsAffected() == 1, nil
}
