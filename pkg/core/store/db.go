// Package store persists evaluation records and cached registry lookups in
// Postgres. Records are append-only: a new evaluation never overwrites an
// earlier one.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool used by the repositories. It is
// satisfied by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the tables used by this package.
const Schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id            UUID PRIMARY KEY,
	session_id    TEXT NOT NULL,
	user_id       TEXT NOT NULL DEFAULT '',
	archetype     TEXT NOT NULL,
	has_valuation BOOLEAN NOT NULL,
	result        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_session_created_idx
	ON evaluations (session_id, created_at);

CREATE TABLE IF NOT EXISTS registry_cache (
	siren      TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
);
`

// Connect opens a pool on databaseURL and checks it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, eris.New("store: database url not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping")
	}
	return pool, nil
}

// Migrate creates the tables when they do not exist.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	return nil
}
