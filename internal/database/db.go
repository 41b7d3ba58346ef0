// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the pgx pool behind the room-directory queries. A nil *Store is
// a valid "persistence disabled" store: every method is a no-op, so callers
// never branch on configuration.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool against connStr and bootstraps the schema. An
// empty connStr returns a nil Store (in-memory only mode).
func Connect(ctx context.Context, connStr string) (*Store, error) {
	if connStr == "" {
		return nil, nil
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates the rooms table if missing. Directory rows survive
// restarts even though the live room engines do not.
func (s *Store) ensureSchema(ctx context.Context) error {
	q := `
	CREATE TABLE IF NOT EXISTS rooms (
		room_id serial PRIMARY KEY,
		room_code VARCHAR (20) NOT NULL UNIQUE,
		num_players INTEGER NOT NULL,
		max_players INTEGER NOT NULL,
		room_name VARCHAR (20),
		room_owner VARCHAR (20),
		game_desc TEXT
	)`
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to ensure rooms schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
